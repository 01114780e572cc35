package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/middleware"
	"github.com/yukikurage/oppuss/internal/services"
)

// maxImportBytes bounds an import body. Photos travel inline as data URLs, so
// backups get large.
const maxImportBytes = 256 << 20

type DataHandler struct {
	data *services.DataService
}

func NewDataHandler(data *services.DataService) *DataHandler {
	return &DataHandler{
		data: data,
	}
}

// Export returns the user's houses, rooms and shopping list as a versioned
// backup document
func (h *DataHandler) Export(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	doc, err := h.data.Export(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if c.Query("download") != "" {
		name := "oppuss-backup-" + doc.Timestamp.Format(time.DateOnly) + ".json"
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	c.JSON(http.StatusOK, doc)
}

// Import replaces the user's data with a backup document. Validation failures
// are reported in the result body with 422, nothing is changed in that case.
func (h *DataHandler) Import(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, "Import document is too large")
			return
		}
		apierrors.BadRequest(c, "Failed to read request body")
		return
	}

	result := h.data.Import(c.Request.Context(), userID, payload)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// Clear deletes every house and room of the user
func (h *DataHandler) Clear(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	result := h.data.ClearAll(c.Request.Context(), userID)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}
