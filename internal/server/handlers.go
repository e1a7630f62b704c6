package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/provscan/internal/model"
)

const (
	uploadField       = "image"
	maxFilenameLength = 255

	// LabelFailed is the verdict reported when no analysis could be produced
	LabelFailed = "Analysis Failed"
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tiff": true, ".webp": true, ".avif": true, ".heic": true,
	".mp4": true, ".mov": true,
}

var verdictLabels = map[model.Verdict]string{
	model.VerdictGenuine:   "Authentic",
	model.VerdictModified:  "Manipulated",
	model.VerdictGenerated: "AI Generated",
	model.VerdictUnknown:   "Inconclusive",
}

// VerdictLabel returns the user-facing label for a verdict
func VerdictLabel(v model.Verdict) string {
	if label, ok := verdictLabels[v]; ok {
		return label
	}
	return verdictLabels[model.VerdictUnknown]
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"healthy":   true,
		"uptime_s":  int64(time.Since(s.started).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleUpload(c *gin.Context) {
	start := time.Now()
	s.metrics.Request()

	if s.cfg.MaxUploadBytes > 0 {
		if c.Request.ContentLength > s.cfg.MaxUploadBytes {
			s.reject(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.reject(c, http.StatusBadRequest, "no image provided")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if len(name) > maxFilenameLength {
		s.reject(c, http.StatusBadRequest, "filename too long")
		return
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		s.reject(c, http.StatusBadRequest, "unsupported file type")
		return
	}

	mime, err := mimetype.DetectReader(file)
	if err != nil || !isMedia(mime) {
		s.reject(c, http.StatusBadRequest, "content is not an image or video")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		s.fail(c, err)
		return
	}

	dir, err := os.MkdirTemp("", "provscan-upload-")
	if err != nil {
		s.fail(c, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := saveUpload(file, path); err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), path)
	if err != nil {
		s.fail(c, err)
		return
	}

	label := VerdictLabel(result.Report.Verdict)
	s.metrics.Verdict(label)

	analysis := gin.H{
		"verdict":        label,
		"classification": result.Report.Verdict,
		"score":          result.Report.Score,
		"confidence":     result.Report.ScoreConfidence,
	}
	if result.Explanation != nil {
		analysis["explanation"] = result.Explanation
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"report":   result.Report,
		"metadata": gin.H{
			"request_id":  c.GetString(requestIDKey),
			"digest":      result.Digest,
			"cache_hit":   result.CacheHit,
			"mime_type":   mime.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
}

// failedBody is the response for every request that produced no verdict.
// Clients reading analysis.verdict see a failure rather than a missing label.
func failedBody(message string) gin.H {
	return gin.H{
		"analysis": gin.H{"verdict": LabelFailed},
		"error":    message,
	}
}

// reject answers a client error; it is not counted as an analysis failure
func (s *Server) reject(c *gin.Context, status int, message string) {
	c.JSON(status, failedBody(message))
}

// fail answers a server-side failure
func (s *Server) fail(c *gin.Context, err error) {
	s.metrics.Failure()
	s.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("upload analysis failed")
	c.JSON(http.StatusInternalServerError, failedBody(err.Error()))
}

func isMedia(mime *mimetype.MIME) bool {
	for m := mime; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") || strings.HasPrefix(m.String(), "video/") {
			return true
		}
	}
	return false
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
