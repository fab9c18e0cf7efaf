package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/spframe/spframe/internal/sharepoint"
)

// handleStatus reports the slideshow state the way the original exposed it
// through sensors: current folder, photo count, last update, and the photo
// being shown right now.
func (s *Server) handleStatus(c *gin.Context) {
	data := s.coordinator.Data()
	status := gin.H{
		"last_update_success": s.coordinator.LastUpdateSuccess(),
		"session_id":          s.coordinator.SessionID(),
	}
	if !s.coordinator.LastUpdate().IsZero() {
		status["last_updated"] = s.coordinator.LastUpdate().UTC().Format(time.RFC3339)
	}
	if data != nil {
		status["folder_name"] = data.FolderName
		status["folder_path"] = data.FolderPath
		status["photo_count"] = data.PhotoCount
	}
	if photo := s.coordinator.CurrentPhoto(); photo != nil {
		status["current_picture"] = gin.H{
			"id":        photo.ID,
			"name":      photo.Name,
			"url":       photo.URL,
			"proxy_url": photo.ProxyURL,
			"index":     photo.Index,
		}
	}
	c.JSON(http.StatusOK, status)
}

// handlePhotos returns the current folder's photo listing.
func (s *Server) handlePhotos(c *gin.Context) {
	data := s.coordinator.Data()
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no photos available"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// handleFolders returns the discovered photo folders.
func (s *Server) handleFolders(c *gin.Context) {
	folders, err := s.coordinator.Folders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "count": len(folders)})
}

// handleRefresh switches to a new random folder.
func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.coordinator.RefreshNewFolder(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.coordinator.Data())
}

type selectFolderRequest struct {
	FolderPath string `json:"folder_path" binding:"required"`
}

// handleSelectFolder switches to an explicitly named folder.
func (s *Server) handleSelectFolder(c *gin.Context) {
	var req selectFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "folder_path is required"})
		return
	}
	if err := s.coordinator.SelectFolder(c.Request.Context(), req.FolderPath); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.coordinator.Data())
}

// handleRefreshToken invalidates the cached bearer token and refreshes the
// current folder so the next listing runs against a fresh one.
func (s *Server) handleRefreshToken(c *gin.Context) {
	if err := s.coordinator.InvalidateToken(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "token invalidated"})
}

// handleImageProxy streams a photo's bytes to the client, hiding the signed
// download URL. The :photo segment is a stable photo ID, with a plain
// listing index accepted for compatibility. When the signed URL has expired
// (401/403) the coordinator refreshes once and the photo is re-resolved by
// ID, name, index, then first-available before retrying the fetch.
func (s *Server) handleImageProxy(c *gin.Context) {
	session := c.Param("session")
	ref := c.Param("photo")

	if session != s.coordinator.SessionID() {
		c.String(http.StatusNotFound, "unknown session")
		return
	}

	photo := s.resolvePhoto(c, ref)
	if photo == nil {
		return
	}

	ctx := c.Request.Context()
	content, contentType, status := s.coordinator.FetchImage(ctx, photo.DownloadURL)

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		log.Infof("api: image URL expired (status=%d), refreshing photo data", status)
		if err := s.coordinator.Refresh(ctx); err != nil {
			log.Warnf("api: refresh after expired URL failed: %v", err)
		}
		refreshed := s.coordinator.FindPhoto(photo.ID, photo.Name, photo.Index)
		if refreshed == nil {
			c.String(http.StatusNotFound, "no photos available after refresh")
			return
		}
		if refreshed.DownloadURL == photo.DownloadURL {
			log.Warn("api: refreshed photo has the same download URL, token refresh may have failed")
		}
		content, contentType, status = s.coordinator.FetchImage(ctx, refreshed.DownloadURL)
	}

	if status == http.StatusOK && len(content) > 0 {
		c.Header("Cache-Control", "public, max-age=3600")
		c.Header("Access-Control-Allow-Origin", "*")
		c.Data(http.StatusOK, contentType, content)
		return
	}

	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.String(status, "failed to fetch image")
}

// resolvePhoto finds the requested photo in the current listing. A ref that
// matches no stable ID must be a numeric index: non-numeric refs get 400,
// out-of-range indices 404. Writes the error response itself and returns
// nil when resolution fails.
func (s *Server) resolvePhoto(c *gin.Context, ref string) *sharepoint.Photo {
	data := s.coordinator.Data()
	if data == nil || len(data.Photos) == 0 {
		c.String(http.StatusNotFound, "no photos available")
		return nil
	}

	for i := range data.Photos {
		if data.Photos[i].ID == ref {
			return &data.Photos[i]
		}
	}

	index, err := strconv.Atoi(ref)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid photo reference")
		return nil
	}
	if index < 0 || index >= len(data.Photos) {
		c.String(http.StatusNotFound, "photo index out of range")
		return nil
	}
	return &data.Photos[index]
}
