// Package slideshow drives the refresh cadence of the SharePoint client and
// owns the last successful result. It is the single writer the client's
// no-concurrent-call precondition requires: HTTP handlers and the refresh
// ticker both go through the coordinator's mutex.
package slideshow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/spframe/spframe/internal/sharepoint"
)

// Coordinator schedules folder refreshes, stores the most recent folder
// data, and rotates through its photos on a fixed cycle.
type Coordinator struct {
	mu     sync.Mutex
	client *sharepoint.Client

	refreshInterval time.Duration
	cycleSeconds    int
	sessionID       string
	now             func() time.Time

	data              *sharepoint.FolderData
	lastUpdate        time.Time
	lastUpdateSuccess bool
}

// New creates a Coordinator around client. cycleSeconds is the slideshow
// rotation period for CurrentPhoto.
func New(client *sharepoint.Client, refreshInterval time.Duration, cycleSeconds int) *Coordinator {
	if cycleSeconds <= 0 {
		cycleSeconds = 10
	}
	return &Coordinator{
		client:          client,
		refreshInterval: refreshInterval,
		cycleSeconds:    cycleSeconds,
		sessionID:       uuid.NewString(),
		now:             time.Now,
	}
}

// SessionID returns the opaque identifier substituted into photo proxy URLs.
// It changes when the client is swapped, invalidating stale proxy links.
func (co *Coordinator) SessionID() string {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.sessionID
}

// Run refreshes immediately and then on every interval tick until ctx is
// cancelled.
func (co *Coordinator) Run(ctx context.Context) {
	if err := co.Refresh(ctx); err != nil {
		log.Errorf("slideshow: initial refresh failed: %v", err)
	}

	ticker := time.NewTicker(co.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := co.Refresh(ctx); err != nil {
				log.Errorf("slideshow: scheduled refresh failed: %v", err)
			}
		}
	}
}

// Refresh re-lists the current folder, or picks one when none is selected.
func (co *Coordinator) Refresh(ctx context.Context) error {
	co.mu.Lock()
	defer co.mu.Unlock()
	data, err := co.client.RefreshOrPick(ctx, false)
	return co.store(data, err)
}

// RefreshNewFolder forces selection of a new random folder.
func (co *Coordinator) RefreshNewFolder(ctx context.Context) error {
	co.mu.Lock()
	defer co.mu.Unlock()
	data, err := co.client.RefreshOrPick(ctx, true)
	return co.store(data, err)
}

// SelectFolder switches to an explicit folder path.
func (co *Coordinator) SelectFolder(ctx context.Context, folderPath string) error {
	co.mu.Lock()
	defer co.mu.Unlock()
	data, err := co.client.SelectSpecificFolder(ctx, folderPath)
	return co.store(data, err)
}

// InvalidateToken clears the client's cached token and refreshes the current
// folder so new signed URLs are fetched with a fresh token.
func (co *Coordinator) InvalidateToken(ctx context.Context) error {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.client.InvalidateToken()
	log.Info("slideshow: cleared authentication token, refreshing current folder")
	data, err := co.client.RefreshOrPick(ctx, false)
	return co.store(data, err)
}

// Folders returns the discovered photo folders, honoring the client's cache.
func (co *Coordinator) Folders(ctx context.Context) ([]sharepoint.Folder, error) {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.client.DiscoverPhotoFolders(ctx, false)
}

// FetchImage retrieves the bytes behind a download URL through the client.
func (co *Coordinator) FetchImage(ctx context.Context, downloadURL string) ([]byte, string, int) {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.client.FetchImageContent(ctx, downloadURL)
}

// SwapClient replaces the SharePoint client after a config reload. The
// session ID is rotated so proxy URLs issued against the old client die with
// it.
func (co *Coordinator) SwapClient(client *sharepoint.Client) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.client = client
	co.sessionID = uuid.NewString()
	co.data = nil
	co.lastUpdateSuccess = false
	log.Info("slideshow: client replaced, session rotated")
}

// store records the outcome of a client call under the held mutex. A nil
// result with a nil error (no folders discovered) counts as a failed update
// but keeps previous data visible.
func (co *Coordinator) store(data *sharepoint.FolderData, err error) error {
	if err != nil {
		co.lastUpdateSuccess = false
		return err
	}
	if data == nil {
		co.lastUpdateSuccess = false
		return fmt.Errorf("no photo folders found")
	}

	for i := range data.Photos {
		data.Photos[i].ProxyURL = strings.ReplaceAll(data.Photos[i].ProxyURL, sharepoint.SessionPlaceholder, co.sessionID)
	}
	co.data = data
	co.lastUpdate = co.now()
	co.lastUpdateSuccess = true
	log.Infof("slideshow: folder %q ready with %d photos", data.FolderName, data.PhotoCount)
	return nil
}

// Data returns the last successful folder data, or nil before the first
// successful refresh.
func (co *Coordinator) Data() *sharepoint.FolderData {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.data
}

// LastUpdateSuccess reports whether the most recent refresh succeeded.
func (co *Coordinator) LastUpdateSuccess() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.lastUpdateSuccess
}

// LastUpdate returns when the last successful refresh completed.
func (co *Coordinator) LastUpdate() time.Time {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.lastUpdate
}

// CurrentPhoto returns the photo the slideshow is showing right now: the
// listing index advances every cycle, so all consumers see the same photo
// for a given wall-clock window. Returns nil when no photos are loaded.
func (co *Coordinator) CurrentPhoto() *sharepoint.Photo {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.data == nil || len(co.data.Photos) == 0 {
		return nil
	}
	cycle := co.now().Unix() / int64(co.cycleSeconds)
	photo := co.data.Photos[int(cycle%int64(len(co.data.Photos)))]
	return &photo
}

// FindPhoto re-resolves a photo against the current listing after a
// refresh reshuffled it: by stable ID, then by name, then by the same
// positional index, then the first available photo. Returns nil when no
// photos are loaded.
func (co *Coordinator) FindPhoto(id, name string, index int) *sharepoint.Photo {
	co.mu.Lock()
	defer co.mu.Unlock()
	if co.data == nil || len(co.data.Photos) == 0 {
		return nil
	}
	photos := co.data.Photos
	for i := range photos {
		if photos[i].ID == id {
			return &photos[i]
		}
	}
	for i := range photos {
		if photos[i].Name == name {
			return &photos[i]
		}
	}
	if index >= 0 && index < len(photos) {
		return &photos[index]
	}
	return &photos[0]
}
