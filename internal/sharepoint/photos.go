package sharepoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// SessionPlaceholder marks the spot in a photo's proxy URL where the
// coordinator substitutes its session identifier.
const SessionPlaceholder = "{session}"

// photoIDLen is the hex length of the content-derived photo identifier.
const photoIDLen = 16

// ListFolderPhotos lists the image files of a folder with thumbnails
// expanded. A photo without a direct download URL is skipped with a warning
// and does not consume an index; the positional index of each returned
// photo equals its offset in the result.
func (c *Client) ListFolderPhotos(ctx context.Context, folderPath string) ([]Photo, error) {
	driveID, err := c.resolveDriveID(ctx)
	if err != nil {
		return nil, err
	}

	listURL := fmt.Sprintf("%s/drives/%s/root:%s:/children?$expand=thumbnails", c.graphBase, driveID, folderPath)
	status, data, err := c.getJSON(ctx, listURL, 1)
	if err != nil {
		return nil, fmt.Errorf("photo listing for %s failed: %w", folderPath, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("photo listing for %s returned %d", folderPath, status)
	}

	var photos []Photo
	for _, item := range data.Get("value").Array() {
		if !item.Get("file").Exists() {
			continue
		}
		name := item.Get("name").String()
		if !isImageFile(name) {
			continue
		}

		downloadURL := item.Get("@microsoft\\.graph\\.downloadUrl").String()
		if downloadURL == "" {
			log.Warnf("sharepoint: no download URL for photo %s, skipping", name)
			continue
		}

		thumbnailURL := pickThumbnailURL(item.Get("thumbnails"))
		displayURL := thumbnailURL
		if displayURL == "" {
			displayURL = downloadURL
		}

		id := photoID(folderPath, item)
		index := len(photos)
		photos = append(photos, Photo{
			ID:           id,
			Name:         name,
			URL:          displayURL,
			ProxyURL:     fmt.Sprintf("/api/sharepoint_photos/image/%s/%s", SessionPlaceholder, id),
			ThumbnailURL: thumbnailURL,
			DownloadURL:  downloadURL,
			WebURL:       item.Get("webUrl").String(),
			Size:         item.Get("size").Int(),
			Modified:     item.Get("lastModifiedDateTime").String(),
			Index:        index,
		})
	}

	log.Debugf("sharepoint: found %d photos in %s", len(photos), folderPath)
	return photos, nil
}

// pickThumbnailURL scans the thumbnail sets for the largest available
// rendition, preferring large over medium over small.
func pickThumbnailURL(thumbnails gjson.Result) string {
	for _, set := range thumbnails.Array() {
		for _, size := range []string{"large", "medium", "small"} {
			if u := set.Get(size + ".url").String(); u != "" {
				return u
			}
		}
	}
	return ""
}

// photoID derives a stable identifier from the drive item, preferring the
// Graph item id and falling back to folder path plus file name. Unlike the
// positional index it survives re-listings of the same folder.
func photoID(folderPath string, item gjson.Result) string {
	seed := item.Get("id").String()
	if seed == "" {
		seed = folderPath + "/" + item.Get("name").String()
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:photoIDLen]
}
