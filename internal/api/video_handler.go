package api

import (
	"errors"
	"net/http"
	"time"
	"videoverse/internal/domain"
	"videoverse/internal/service"
	"videoverse/internal/storage"

	"github.com/gin-gonic/gin"
)

// VideoHandler holds the video pipeline dependencies.
type VideoHandler struct {
	videoService   service.VideoService
	validator      *service.UploadValidator
	store          *storage.Store
	maxUploadBytes int64
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService, validator *service.UploadValidator, store *storage.Store, maxUploadBytes int64) *VideoHandler {
	return &VideoHandler{
		videoService:   videoService,
		validator:      validator,
		store:          store,
		maxUploadBytes: maxUploadBytes,
	}
}

// --- DTOs for API (Data Transfer Objects) ---

// TrimRequest defines the expected JSON for trimming a video. Start and End
// are optional offsets in seconds; at least one must be present.
type TrimRequest struct {
	VideoID string   `json:"videoId"`
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
}

// MergeRequest defines the expected JSON for merging videos.
type MergeRequest struct {
	VideoIDs []string `json:"videoIds"`
}

// VideoResponse is the DTO for returning video details.
type VideoResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Duration  float64   `json:"duration"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// MapVideoToResponse converts a domain.Video to VideoResponse DTO.
func MapVideoToResponse(v *domain.Video) VideoResponse {
	if v == nil {
		return VideoResponse{}
	}
	return VideoResponse{
		ID:        v.ID.Hex(),
		Name:      v.Name,
		Size:      v.Size,
		Duration:  v.Duration,
		Path:      v.Path,
		CreatedAt: v.CreatedAt,
	}
}

// --- Handler Methods ---

// Upload receives a multipart video file, admits it against the upload
// policy and persists its metadata. The request body is capped at the
// transport layer before the file is read.
func (h *VideoHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("video")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			abortWithError(c, http.StatusBadRequest, "no video file uploaded")
			return
		}
		// Body over the transport cap or malformed multipart.
		abortWithError(c, http.StatusBadRequest, "invalid video upload")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		abortWithError(c, http.StatusBadRequest, "uploaded video exceeds the maximum allowed size")
		return
	}

	if err := h.store.EnsureDir(); err != nil {
		abortWithError(c, http.StatusInternalServerError, "server error while creating storage")
		return
	}

	dst := h.store.PathFor(storage.UploadName(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
		abortWithError(c, http.StatusInternalServerError, "server error during file upload")
		return
	}

	admitted, err := h.validator.Validate(c.Request.Context(), dst, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		// The rejected file must not linger in the store.
		_ = h.store.Remove(dst)

		var bounds *service.DurationOutOfBoundsError
		switch {
		case errors.As(err, &bounds):
			abortWithError(c, http.StatusBadRequest, bounds.Error())
		case errors.Is(err, service.ErrUploadTooLarge), errors.Is(err, service.ErrNoFileUploaded):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "error processing video")
		}
		return
	}

	video, err := h.videoService.Ingest(c.Request.Context(), admitted)
	if err != nil {
		_ = h.store.Remove(dst)
		abortWithError(c, http.StatusInternalServerError, "server error while saving video")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "video uploaded successfully",
		"video":   MapVideoToResponse(video),
	})
}

// Trim creates a new video covering a time window of a stored one.
func (h *VideoHandler) Trim(c *gin.Context) {
	var req TrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "video ID and one of the start or end time required")
		return
	}

	video, err := h.videoService.Trim(c.Request.Context(), req.VideoID, req.Start, req.End)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, "video ID and one of the start or end time required")
		case errors.Is(err, service.ErrVideoNotFound):
			abortWithError(c, http.StatusNotFound, "video not found")
		case errors.Is(err, service.ErrBoundsOutOfRange):
			abortWithError(c, http.StatusBadRequest, "start and end time should be in original video duration limits")
		case errors.Is(err, service.ErrSourceFileMissing):
			abortWithError(c, http.StatusNotFound, "video file not found in store")
		case errors.Is(err, service.ErrStorageUnavailable):
			abortWithError(c, http.StatusInternalServerError, "server error while creating storage")
		case errors.Is(err, service.ErrTranscodeFailed):
			abortWithError(c, http.StatusInternalServerError, "error trimming video")
		case errors.Is(err, service.ErrMetadataSave):
			abortWithError(c, http.StatusInternalServerError, "video trimmed but could not be saved")
		default:
			abortWithError(c, http.StatusInternalServerError, "server error while trimming video")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "video trimmed successfully",
		"video":   MapVideoToResponse(video),
	})
}

// Merge concatenates two or more stored videos into a new one.
func (h *VideoHandler) Merge(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "at least two video IDs are required to merge videos")
		return
	}

	video, err := h.videoService.Merge(c.Request.Context(), req.VideoIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, "at least two video IDs are required to merge videos")
		case errors.Is(err, service.ErrVideosNotFound):
			abortWithError(c, http.StatusNotFound, "one or more video IDs do not exist")
		case errors.Is(err, service.ErrSourceFilesMissing):
			abortWithError(c, http.StatusNotFound, "one or more video files are missing from the store")
		case errors.Is(err, service.ErrStorageUnavailable):
			abortWithError(c, http.StatusInternalServerError, "server error while creating storage")
		case errors.Is(err, service.ErrTranscodeFailed):
			abortWithError(c, http.StatusInternalServerError, "error merging videos")
		case errors.Is(err, service.ErrMetadataSave):
			abortWithError(c, http.StatusInternalServerError, "videos merged but could not be saved")
		default:
			abortWithError(c, http.StatusInternalServerError, "server error while merging videos")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "videos merged successfully",
		"video":   MapVideoToResponse(video),
	})
}
