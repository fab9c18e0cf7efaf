// Package sharepoint implements the Microsoft Graph client behind the photo
// slideshow: token lifecycle, site/drive resolution, recursive photo-folder
// discovery with caching, random folder selection with anti-repeat history,
// per-folder photo listing, and raw image fetching.
//
// A Client is not safe for concurrent use. The coordinator serializes all
// calls against a single instance; the client itself keeps no locks around
// its token, caches, or session state.
package sharepoint

import (
	"context"
	"math/rand"
	"net/http"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// GraphAPIBase is the Microsoft Graph v1.0 REST endpoint.
	GraphAPIBase = "https://graph.microsoft.com/v1.0"
	// AuthorityBase is the Microsoft identity platform authority.
	AuthorityBase = "https://login.microsoftonline.com"
	// GraphScope is the client-credentials scope for Graph access.
	GraphScope = "https://graph.microsoft.com/.default"

	// folderCacheTTL is how long a discovered folder list stays valid.
	folderCacheTTL = time.Hour
	// tokenExpirySafetyMargin is subtracted from the provider-reported token
	// lifetime to avoid racing edge-of-expiry rejections.
	tokenExpirySafetyMargin = 60 * time.Second
	// defaultRequestTimeout bounds every outbound HTTP request unless the
	// caller supplies its own client.
	defaultRequestTimeout = 30 * time.Second
)

// imageExtensions lists the file suffixes recognized as photos,
// matched case-insensitively.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff"}

// Credentials holds the client-credentials identity for the tenant.
// Immutable for the lifetime of a Client.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Client talks to SharePoint through the Microsoft Graph API.
type Client struct {
	creds          Credentials
	siteURL        string
	libraryName    string
	baseFolderPath string

	httpClient    *http.Client
	authorityBase string
	graphBase     string
	now           func() time.Time
	rand          *rand.Rand

	accessToken  string
	tokenExpires time.Time

	siteID  string
	driveID string

	folderCache  []Folder
	cacheExpires time.Time

	history *folderHistory

	currentFolderPath string
	currentFolderData *FolderData
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthorityBase overrides the identity authority, used by tests.
func WithAuthorityBase(base string) Option {
	return func(c *Client) { c.authorityBase = strings.TrimRight(base, "/") }
}

// WithGraphBase overrides the Graph API endpoint, used by tests.
func WithGraphBase(base string) Option {
	return func(c *Client) { c.graphBase = strings.TrimRight(base, "/") }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRand overrides the random source used for folder selection.
func WithRand(r *rand.Rand) Option {
	return func(c *Client) { c.rand = r }
}

// New creates a Client for the given site and library. historySize bounds
// the anti-repeat folder history; 0 disables it.
func New(creds Credentials, siteURL, libraryName, baseFolderPath string, historySize int, opts ...Option) *Client {
	if libraryName == "" {
		libraryName = "Documents"
	}
	if baseFolderPath == "" {
		baseFolderPath = "/Photos"
	}
	c := &Client{
		creds:          creds,
		siteURL:        strings.TrimRight(siteURL, "/"),
		libraryName:    libraryName,
		baseFolderPath: baseFolderPath,
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		authorityBase:  AuthorityBase,
		graphBase:      GraphAPIBase,
		now:            time.Now,
		rand:           rand.New(rand.NewSource(time.Now().UnixNano())),
		history:        newFolderHistory(historySize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseFolderPath returns the configured discovery root.
func (c *Client) BaseFolderPath() string { return c.baseFolderPath }

// CurrentFolderPath returns the most recently selected folder path, or ""
// if no folder has been selected yet.
func (c *Client) CurrentFolderPath() string { return c.currentFolderPath }

// RecentFolders returns the anti-repeat history, oldest first.
func (c *Client) RecentFolders() []string { return c.history.Snapshot() }

// isImageFile reports whether name carries a recognized image extension.
func isImageFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// displayFolderName returns folderPath relative to the configured base path,
// falling back to the last path segment when the base does not prefix-match.
func (c *Client) displayFolderName(folderPath string) string {
	normalized := strings.Trim(folderPath, "/")
	if normalized == "" {
		return ""
	}
	base := strings.Trim(c.baseFolderPath, "/")
	if base != "" {
		pathParts := strings.Split(normalized, "/")
		baseParts := strings.Split(base, "/")
		if len(pathParts) > len(baseParts) && strings.EqualFold(strings.Join(pathParts[:len(baseParts)], "/"), base) {
			return strings.Join(pathParts[len(baseParts):], "/")
		}
	}
	return path.Base(normalized)
}

// mintFolderData assembles a FolderData for folderPath from a fresh listing.
func (c *Client) mintFolderData(folderPath string, photos []Photo) *FolderData {
	return &FolderData{
		FolderName:  c.displayFolderName(folderPath),
		FolderPath:  folderPath,
		Photos:      photos,
		PhotoCount:  len(photos),
		LastUpdated: c.now().UTC(),
	}
}

// TestConnection verifies the configuration end to end: authentication,
// site resolution, and library resolution. Used during startup and by the
// config validation endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.Authenticate(ctx); err != nil {
		return err
	}
	if _, err := c.resolveSiteID(ctx); err != nil {
		return err
	}
	if _, err := c.resolveDriveID(ctx); err != nil {
		return err
	}
	log.Infof("sharepoint: connection test passed for %s", c.siteURL)
	return nil
}
