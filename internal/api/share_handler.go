package api

import (
	"errors"
	"net/http"
	"time"
	"videoverse/internal/domain"
	"videoverse/internal/service"

	"github.com/gin-gonic/gin"
)

// ShareHandler holds the share link service dependency.
type ShareHandler struct {
	shareService service.ShareService
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(shareService service.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

// ShareLinkResponse is the DTO for a freshly issued share link.
type ShareLinkResponse struct {
	ID         string    `json:"id"`
	Link       string    `json:"link"`
	VideoID    string    `json:"videoId"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// MapSharedLinkToResponse converts a domain.SharedLink to its DTO. The link
// id doubles as the public access token.
func MapSharedLinkToResponse(l *domain.SharedLink) ShareLinkResponse {
	if l == nil {
		return ShareLinkResponse{}
	}
	return ShareLinkResponse{
		ID:         l.ID.Hex(),
		Link:       "/share/" + l.ID.Hex(),
		VideoID:    l.VideoID.Hex(),
		ExpiryDate: l.ExpiryDate,
	}
}

// Create issues a share link for the video named in the path.
func (h *ShareHandler) Create(c *gin.Context) {
	link, err := h.shareService.Create(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, "video ID is required")
		case errors.Is(err, service.ErrVideoNotFound):
			abortWithError(c, http.StatusNotFound, "video not found")
		default:
			abortWithError(c, http.StatusInternalServerError, "server error while creating share link")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "share link created successfully",
		"share":   MapSharedLinkToResponse(link),
	})
}

// Resolve streams the video behind a share link. This route is public: the
// link id in the path is the access token.
func (h *ShareHandler) Resolve(c *gin.Context) {
	video, err := h.shareService.Resolve(c.Request.Context(), c.Param("linkId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			abortWithError(c, http.StatusNotFound, "link not found")
		case errors.Is(err, service.ErrLinkExpired):
			// Expired is a distinct outcome from never-existed.
			abortWithError(c, http.StatusGone, "link expired")
		case errors.Is(err, service.ErrSharedFileMissing), errors.Is(err, service.ErrVideoNotFound):
			abortWithError(c, http.StatusNotFound, "video file not found in store")
		default:
			abortWithError(c, http.StatusInternalServerError, "server error while resolving share link")
		}
		return
	}

	c.File(video.Path)
}
