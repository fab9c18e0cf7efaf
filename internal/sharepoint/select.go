package sharepoint

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// PickRandomFolder selects a folder uniformly at random among discovered
// photo folders, preferring folders outside the recent-history window. The
// exclusion is waived entirely when it would leave no candidates; history
// biases selection, it never blocks it. Returns nil when no photo folders
// exist.
func (c *Client) PickRandomFolder(ctx context.Context) (*FolderData, error) {
	folders, err := c.DiscoverPhotoFolders(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, nil
	}

	candidates := c.filterRecent(folders)
	selected := candidates[c.rand.Intn(len(candidates))]
	log.Infof("sharepoint: selected random folder %s", selected.Path)

	photos, err := c.ListFolderPhotos(ctx, selected.Path)
	if err != nil {
		return nil, fmt.Errorf("listing photos for %s: %w", selected.Path, err)
	}

	data := c.mintFolderData(selected.Path, photos)
	c.currentFolderPath = selected.Path
	c.currentFolderData = data
	c.history.Record(selected.Path)
	return data, nil
}

// RefreshOrPick re-lists the current folder's photos when one is selected
// and forceNew is false, falling back to a fresh random pick when the
// listing fails. Without a current folder, or with forceNew set, it
// delegates to PickRandomFolder.
func (c *Client) RefreshOrPick(ctx context.Context, forceNew bool) (*FolderData, error) {
	if c.currentFolderPath != "" && !forceNew {
		log.Debugf("sharepoint: refreshing current folder %s", c.currentFolderPath)
		photos, err := c.ListFolderPhotos(ctx, c.currentFolderPath)
		if err == nil {
			data := c.mintFolderData(c.currentFolderPath, photos)
			c.currentFolderData = data
			return data, nil
		}
		log.Warnf("sharepoint: failed to refresh folder %s, picking a new one: %v", c.currentFolderPath, err)
	}
	return c.PickRandomFolder(ctx)
}

// SelectSpecificFolder lists photos for an explicit path and makes it the
// current folder, updating history the same way random selection does.
func (c *Client) SelectSpecificFolder(ctx context.Context, folderPath string) (*FolderData, error) {
	photos, err := c.ListFolderPhotos(ctx, folderPath)
	if err != nil {
		return nil, fmt.Errorf("selecting folder %s: %w", folderPath, err)
	}

	data := c.mintFolderData(folderPath, photos)
	c.currentFolderPath = folderPath
	c.currentFolderData = data
	c.history.Record(folderPath)
	log.Infof("sharepoint: selected folder %s", folderPath)
	return data, nil
}

// filterRecent removes recently used folders from the candidate set,
// returning the full set when the filter would empty it.
func (c *Client) filterRecent(folders []Folder) []Folder {
	if c.history.Len() == 0 {
		return folders
	}
	available := make([]Folder, 0, len(folders))
	for _, folder := range folders {
		if !c.history.has(folder.Path) {
			available = append(available, folder)
		}
	}
	if len(available) == 0 {
		log.Debugf("sharepoint: all %d folders are in the recent window, allowing reuse", len(folders))
		return folders
	}
	if excluded := len(folders) - len(available); excluded > 0 {
		log.Debugf("sharepoint: excluded %d recently used folders", excluded)
	}
	return available
}
