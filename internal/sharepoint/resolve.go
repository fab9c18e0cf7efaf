package sharepoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// resolveSiteID looks up the Graph site identifier for the configured site
// URL and memoizes it for the process lifetime of the client.
func (c *Client) resolveSiteID(ctx context.Context) (string, error) {
	if c.siteID != "" {
		return c.siteID, nil
	}

	parsed, err := url.Parse(c.siteURL)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("site URL must start with https://: %q", c.siteURL)
	}
	hostname := parsed.Host
	sitePath := strings.Trim(parsed.Path, "/")

	var lookupURL string
	if sitePath != "" {
		lookupURL = fmt.Sprintf("%s/sites/%s:/%s", c.graphBase, hostname, sitePath)
	} else {
		lookupURL = fmt.Sprintf("%s/sites/%s", c.graphBase, hostname)
	}

	status, data, err := c.getJSON(ctx, lookupURL, 1)
	if err != nil {
		return "", fmt.Errorf("site lookup failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("site lookup for %s returned %d", c.siteURL, status)
	}

	siteID := data.Get("id").String()
	if siteID == "" {
		return "", fmt.Errorf("site lookup response missing id")
	}
	c.siteID = siteID
	log.Debugf("sharepoint: resolved site ID %s", truncateForLog(siteID, 20))
	return siteID, nil
}

// resolveDriveID finds the drive behind the configured library name,
// matching exact, then case-insensitive, then by substring heuristics for
// common library-name synonyms. The first match wins and is memoized.
func (c *Client) resolveDriveID(ctx context.Context) (string, error) {
	if c.driveID != "" {
		return c.driveID, nil
	}

	siteID, err := c.resolveSiteID(ctx)
	if err != nil {
		return "", err
	}

	status, data, err := c.getJSON(ctx, fmt.Sprintf("%s/sites/%s/drives", c.graphBase, siteID), 1)
	if err != nil {
		return "", fmt.Errorf("drive listing failed: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("drive listing returned %d", status)
	}

	// The library name may arrive URL-encoded from older configs.
	wanted := c.libraryName
	if decoded, errDecode := url.QueryUnescape(wanted); errDecode == nil {
		wanted = decoded
	}

	drives := data.Get("value").Array()
	for _, drive := range drives {
		name := drive.Get("name").String()
		if name == c.libraryName || name == wanted || strings.EqualFold(name, c.libraryName) || strings.EqualFold(name, wanted) {
			c.driveID = drive.Get("id").String()
			log.Infof("sharepoint: matched library %q (drive %s)", name, truncateForLog(c.driveID, 20))
			return c.driveID, nil
		}
	}

	// Substring heuristics for default library names and their localized
	// variants ("Shared Documents", "Freigegebene Dokumente").
	wantedLower := strings.ToLower(wanted)
	for _, drive := range drives {
		nameLower := strings.ToLower(drive.Get("name").String())
		documentMatch := strings.Contains(nameLower, "document") && strings.Contains(wantedLower, "document")
		sharedMatch := strings.Contains(nameLower, "shared") &&
			(strings.Contains(wantedLower, "shared") || strings.Contains(wantedLower, "freigegebene"))
		if documentMatch || sharedMatch {
			c.driveID = drive.Get("id").String()
			log.Infof("sharepoint: matched library %q by synonym (drive %s)", drive.Get("name").String(), truncateForLog(c.driveID, 20))
			return c.driveID, nil
		}
	}

	return "", fmt.Errorf("library %q not found among %d drives", c.libraryName, len(drives))
}
