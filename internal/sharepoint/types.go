package sharepoint

import "time"

// Folder identifies a document-library folder that directly contains at
// least one photo. Name is the display name relative to the configured base
// path; Path is the absolute path from the library root.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Photo describes a single image file inside a folder listing.
type Photo struct {
	// ID is a content-derived stable identifier (short hash of the drive
	// item), usable across re-listings of the same folder. The positional
	// Index is only stable within one listing response.
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ProxyURL     string `json:"proxy_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	WebURL       string `json:"web_url,omitempty"`
	Size         int64  `json:"size"`
	Modified     string `json:"modified,omitempty"`
	Index        int    `json:"index"`
}

// FolderData is the result of selecting or refreshing a folder: the folder
// identity plus its photo listing at the time of the call.
type FolderData struct {
	FolderName  string    `json:"folder_name"`
	FolderPath  string    `json:"folder_path"`
	Photos      []Photo   `json:"photos"`
	PhotoCount  int       `json:"photo_count"`
	LastUpdated time.Time `json:"last_updated"`
}
