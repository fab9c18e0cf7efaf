package sharepoint

import (
	"context"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// FetchImageContent retrieves the raw bytes behind a photo's download URL.
// Download URLs are self-authenticating signed links, so no bearer header is
// sent. A 401 means the signed URL expired: the cached API token is cleared
// as a conservative side effect and (nil, "", 401) is returned so the caller
// can re-list the folder for fresh URLs. Other failures return the observed
// status, or 500 for transport errors. This never returns an error; failures
// are logged and reflected in the status.
func (c *Client) FetchImageContent(ctx context.Context, downloadURL string) ([]byte, string, int) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		log.Errorf("sharepoint: failed to create image request: %v", err)
		return nil, "", http.StatusInternalServerError
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("sharepoint: error fetching image content: %v", err)
		return nil, "", http.StatusInternalServerError
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		content, errRead := io.ReadAll(resp.Body)
		if errRead != nil {
			log.Errorf("sharepoint: error reading image body: %v", errRead)
			return nil, "", http.StatusInternalServerError
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		log.Debugf("sharepoint: fetched image, %d bytes", len(content))
		return content, contentType, http.StatusOK
	case http.StatusUnauthorized:
		// The signed URL expired; a fresh folder listing is needed for new
		// URLs. Clearing the API token anticipates that re-listing.
		log.Warn("sharepoint: download URL expired (401), photo data needs refresh")
		c.InvalidateToken()
		return nil, "", http.StatusUnauthorized
	default:
		log.Errorf("sharepoint: failed to fetch image: HTTP %d", resp.StatusCode)
		return nil, "", resp.StatusCode
	}
}
