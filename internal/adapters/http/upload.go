package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UploadHandler stores multipart uploads on disk and answers with the URL
// they are served from. It keeps no state about what was uploaded.
type UploadHandler struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

func NewUploadHandler(dir, publicURL string, maxBytes int64) *UploadHandler {
	return &UploadHandler{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/"), MaxBytes: maxBytes}
}

type uploadResponse struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

func (h *UploadHandler) Handle(c *gin.Context) {
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_unreadable"})
		return
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_unreadable"})
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	stored := uuid.NewString() + "-" + sanitizeFileName(fh.Filename)
	if err := h.save(src, stored); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("file", stored).Msg("upload save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("file", stored).Str("mime", mt.String()).Int64("size", fh.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, uploadResponse{
		FileURL:  h.PublicURL + "/uploads/" + url.PathEscape(stored),
		FileName: fh.Filename,
		MimeType: mt.String(),
	})
}

func (h *UploadHandler) save(src io.Reader, name string) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if clean == "" || clean == "." || clean == ".." {
		return "file"
	}
	return clean
}
