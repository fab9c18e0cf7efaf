package sharepoint

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// DiscoverPhotoFolders walks the folder tree beneath the configured base
// path and returns every folder that directly contains at least one image
// file. Results are cached for an hour; forceRefresh bypasses the cache.
func (c *Client) DiscoverPhotoFolders(ctx context.Context, forceRefresh bool) ([]Folder, error) {
	if !forceRefresh && c.folderCache != nil && c.now().Before(c.cacheExpires) {
		log.Debugf("sharepoint: using cached folder list (%d folders)", len(c.folderCache))
		return c.folderCache, nil
	}

	driveID, err := c.resolveDriveID(ctx)
	if err != nil {
		return nil, fmt.Errorf("no drive available for folder scan: %w", err)
	}

	log.Infof("sharepoint: scanning folders under %s", c.baseFolderPath)
	var folders []Folder
	c.scanFolders(ctx, driveID, c.baseFolderPath, &folders)

	c.folderCache = folders
	c.cacheExpires = c.now().Add(folderCacheTTL)
	log.Infof("sharepoint: folder scan complete, %d photo folders", len(folders))
	return folders, nil
}

// scanFolders lists folderPath's children and recurses into every subfolder.
// A folder qualifies when at least one direct child file is an image; the
// classification of a folder is independent of its descendants. A missing
// folder (404) or any other error terminates only that branch.
func (c *Client) scanFolders(ctx context.Context, driveID, folderPath string, folders *[]Folder) {
	listURL := fmt.Sprintf("%s/drives/%s/root:%s:/children", c.graphBase, driveID, folderPath)
	status, data, err := c.getJSON(ctx, listURL, 1)
	if err != nil {
		log.Errorf("sharepoint: error scanning folder %s: %v", folderPath, err)
		return
	}
	if status == http.StatusNotFound {
		log.Warnf("sharepoint: folder not found: %s", folderPath)
		return
	}
	if status != http.StatusOK {
		log.Errorf("sharepoint: error scanning folder %s: status %d", folderPath, status)
		return
	}

	hasPhotos := false
	var subfolders []string
	for _, item := range data.Get("value").Array() {
		switch {
		case item.Get("folder").Exists():
			subfolders = append(subfolders, item.Get("name").String())
		case item.Get("file").Exists():
			if isImageFile(item.Get("name").String()) {
				hasPhotos = true
			}
		}
	}

	if hasPhotos {
		*folders = append(*folders, Folder{
			Name: c.displayFolderName(folderPath),
			Path: folderPath,
		})
		log.Debugf("sharepoint: added photo folder %s", folderPath)
	}

	for _, sub := range subfolders {
		c.scanFolders(ctx, driveID, folderPath+"/"+sub, folders)
	}
}
