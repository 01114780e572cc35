package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/oppuss/internal/constants"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/imaging"
)

type ImageHandler struct {
	images *imaging.Pipeline
}

func NewImageHandler(images *imaging.Pipeline) *ImageHandler {
	return &ImageHandler{
		images: images,
	}
}

// Thumbnail renders a preview of a data URL. Input that cannot be rendered is
// echoed back unchanged.
func (h *ImageHandler) Thumbnail(c *gin.Context) {
	type ThumbnailRequest struct {
		Image string `json:"image" binding:"required"`
		Size  int    `json:"size"`
		Key   string `json:"key"`
	}

	var req ThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Size == 0 {
		req.Size = constants.DefaultThumbnailSize
	}
	if req.Size < 0 || req.Size > constants.MaxThumbnailSize {
		apierrors.BadRequest(c, errInvalidSize.Error())
		return
	}

	thumbnail := h.images.GetThumbnail(c.Request.Context(), req.Image, req.Size, req.Key)
	c.JSON(http.StatusOK, gin.H{
		"thumbnail": thumbnail,
		"generated": thumbnail != req.Image && strings.HasPrefix(thumbnail, "data:image/jpeg"),
	})
}
