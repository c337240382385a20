package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const maxAvatarSize = 5 << 20

// UploadHandler stores attachment and avatar files on local disk, sorted into
// subdirectories by media kind.
type UploadHandler struct {
	baseDir string
	users   repositories.UserRepository
}

// NewUploadHandler builds an UploadHandler rooted at baseDir.
func NewUploadHandler(baseDir string, users repositories.UserRepository) *UploadHandler {
	return &UploadHandler{baseDir: baseDir, users: users}
}

// UploadAttachment saves a multipart file and returns its attachment
// descriptor for use in messages and stories.
func (h *UploadHandler) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	subdir := subdirFor(contentType)
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(file.Filename))

	dir := filepath.Join(h.baseDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	c.JSON(http.StatusCreated, models.Attachment{
		FileName: file.Filename,
		FileType: contentType,
		FileSize: file.Size,
		URL:      "/uploads/" + subdir + "/" + name,
	})
}

// UploadAvatar replaces the caller's avatar. Only JPEG and PNG up to 5 MB.
func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar must be JPEG or PNG"})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar exceeds 5 MB"})
		return
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(file.Filename))
	dir := filepath.Join(h.baseDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	user, err := h.users.UpdateAvatar(c.Request.Context(), c.GetInt("userID"), "/uploads/avatars/"+name)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update avatar"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// subdirFor sorts uploads by MIME prefix.
func subdirFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "images"
	case strings.HasPrefix(contentType, "video/"):
		return "videos"
	default:
		return "files"
	}
}

// sanitizeFilename strips directory components and whitespace.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "file"
	}
	return name
}
