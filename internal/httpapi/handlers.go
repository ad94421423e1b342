package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vodhub/internal/catalog"
	"vodhub/internal/metrics"
	"vodhub/internal/middleware"
	"vodhub/internal/pipeline"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type uploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// uploadVideo accepts the multipart upload, creates the PROCESSING record
// and hands the file to the scheduler. The response never waits on
// transcoding.
func (s *Server) uploadVideo(c *gin.Context) {
	ownerID := middleware.OwnerID(c)

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video file provided"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.extensionAllowed(ext) {
		metrics.UploadRejectedTotal.WithLabelValues("extension").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported container %q, allowed: %s",
				ext, strings.Join(s.cfg.Upload.AllowedExtensions, ", ")),
		})
		return
	}

	if file.Size > s.cfg.Upload.MaxSizeBytes {
		metrics.UploadRejectedTotal.WithLabelValues("size").Inc()
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds %d byte limit", s.cfg.Upload.MaxSizeBytes),
		})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	visibility := c.PostForm("visibility")
	if visibility == "" {
		visibility = "PUBLIC"
	}

	id := uuid.New().String()
	sourcePath := filepath.Join(s.uploadDir, id+ext)

	if err := c.SaveUploadedFile(file, sourcePath); err != nil {
		s.log.Error().Err(err).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	video := &catalog.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: c.PostForm("description"),
		Visibility:  visibility,
		Status:      catalog.StatusProcessing,
	}
	if err := s.catalog.Create(c.Request.Context(), video); err != nil {
		os.Remove(sourcePath)
		s.log.Error().Err(err).Msg("failed to create video record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create video"})
		return
	}

	err = s.scheduler.Submit(pipeline.Job{
		VideoID:    id,
		OwnerID:    ownerID,
		SourcePath: sourcePath,
	})
	if err != nil {
		// The record and file must not linger if the job never entered
		// the queue; the uploader retries with a fresh upload.
		os.Remove(sourcePath)
		if delErr := s.catalog.Delete(c.Request.Context(), id); delErr != nil {
			s.log.Error().Err(delErr).Str("video_id", id).Msg("failed to clean up rejected upload record")
		}

		if errors.Is(err, pipeline.ErrBackpressure) {
			metrics.UploadRejectedTotal.WithLabelValues("backpressure").Inc()
			c.Header("Retry-After", "30")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcode queue full, retry later"})
			return
		}
		s.log.Error().Err(err).Msg("failed to submit transcode job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to schedule processing"})
		return
	}

	metrics.UploadsTotal.Inc()
	metrics.UploadSizeBytes.Observe(float64(file.Size))

	c.JSON(http.StatusAccepted, uploadResponse{ID: id, Status: catalog.StatusProcessing})
}

func (s *Server) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *Server) getVideoStatus(c *gin.Context) {
	snap, err := s.tracker.GetStatus(c.Request.Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get status"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (s *Server) getVideo(c *gin.Context) {
	video, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get video"})
		return
	}

	c.JSON(http.StatusOK, video)
}

// streamVideo serves one rendition honoring single-range requests. Only
// committed, PUBLISHED artifacts are ever opened, so no coordination with
// the pipeline is needed.
func (s *Server) streamVideo(c *gin.Context) {
	ctx := c.Request.Context()

	video, err := s.catalog.Get(ctx, c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get video"})
		return
	}
	if video.Status != catalog.StatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not available"})
		return
	}

	rendition, ok := video.Rendition(parseQuality(c.Query("quality")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no playable rendition"})
		return
	}

	reader, size, err := s.artifacts.Open(ctx, rendition.Path)
	if err != nil {
		s.log.Error().Err(err).Str("key", rendition.Path).Msg("failed to open rendition")
		c.JSON(http.StatusNotFound, gin.H{"error": "rendition not available"})
		return
	}
	defer reader.Close()

	rng, err := parseRange(c.GetHeader("Range"), size)
	if errors.Is(err, ErrInvalidRange) {
		metrics.RangeRequestsTotal.WithLabelValues("invalid").Inc()
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
		c.JSON(http.StatusRequestedRangeNotSatisfiable, gin.H{"error": "range not satisfiable"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Accept-Ranges", "bytes")

	if rng == nil {
		metrics.RangeRequestsTotal.WithLabelValues("full").Inc()
		c.Header("Content-Length", strconv.FormatInt(size, 10))
		c.Status(http.StatusOK)
		s.copyChunk(c, reader, size)
		return
	}

	if _, err := reader.Seek(rng.start, io.SeekStart); err != nil {
		s.log.Error().Err(err).Str("key", rendition.Path).Msg("failed to seek rendition")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read rendition"})
		return
	}

	metrics.RangeRequestsTotal.WithLabelValues("partial").Inc()
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.start, rng.end, size))
	c.Header("Content-Length", strconv.FormatInt(rng.length(), 10))
	c.Status(http.StatusPartialContent)
	s.copyChunk(c, reader, rng.length())
}

// copyChunk streams exactly n bytes to the client without buffering the
// file. A short write just means the client went away mid-stream.
func (s *Server) copyChunk(c *gin.Context, r io.Reader, n int64) {
	written, err := io.CopyN(c.Writer, r, n)
	metrics.BytesStreamedTotal.Add(float64(written))
	if err != nil && !errors.Is(err, io.EOF) {
		s.log.Debug().Err(err).Int64("written", written).Msg("stream ended early")
	}
}

type updateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

func (s *Server) updateVideo(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	video, err := s.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get video"})
		return
	}

	if video.OwnerID != middleware.OwnerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the video owner"})
		return
	}

	updated, err := s.catalog.UpdateDetails(ctx, id, req.Title, req.Description, req.Visibility)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update video"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// deleteVideo removes the record and the whole artifact directory.
func (s *Server) deleteVideo(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	video, err := s.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get video"})
		return
	}

	if video.OwnerID != middleware.OwnerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the video owner"})
		return
	}

	if err := s.artifacts.RemoveVideo(ctx, id); err != nil {
		s.log.Error().Err(err).Str("video_id", id).Msg("failed to remove artifacts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete video"})
		return
	}
	if err := s.catalog.Delete(ctx, id); err != nil && !errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete video"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "video deleted"})
}

// parseQuality turns "720" or "720p" into a height; 0 means "highest
// available".
func parseQuality(q string) int {
	if q == "" {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSuffix(q, "p"))
	if err != nil || h <= 0 {
		return 0
	}
	return h
}
