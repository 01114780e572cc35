package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/oppuss/internal/aggregate"
	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/dto"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/middleware"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
	"go.uber.org/zap"
)

// maxUploadBytes bounds a photo upload request: a full batch at the largest
// profile's size limit.
const maxUploadBytes = imaging.MaxBatchFiles * 15 << 20

type RoomHandler struct {
	rooms   *services.RoomService
	images  *imaging.Pipeline
	profile imaging.Profile
	log     *zap.Logger
}

func NewRoomHandler(rooms *services.RoomService, images *imaging.Pipeline, profile imaging.Profile, log *zap.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		images:  images,
		profile: profile,
		log:     logging.OrNop(log),
	}
}

// ListRooms returns all of the user's rooms, or one house's rooms when
// house_id is given
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var (
		rooms []models.Room
		err   error
	)
	if houseID := c.Query("house_id"); houseID != "" {
		rooms, err = h.rooms.ListRoomsForHouse(c.Request.Context(), userID, houseID)
	} else {
		rooms, err = h.rooms.ListRooms(c.Request.Context(), userID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}

	c.JSON(http.StatusOK, rooms)
}

// CreateRoom creates a room in one of the user's houses
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.CreateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

// GetRoom returns the room loaded by RequireRoomAccess
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, ok := middleware.GetRoom(c)
	if !ok {
		apierrors.InternalError(c, "Room not found in context")
		return
	}

	c.JSON(http.StatusOK, room)
}

// UpdateRoom applies a partial update. Tasks are not touched.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	room, err := h.rooms.UpdateRoom(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// DeleteRoom deletes a room
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.rooms.DeleteRoom(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Room deleted successfully",
	})
}

// ReplaceTasks overwrites the room's task collection and returns the room
func (h *RoomHandler) ReplaceTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	type ReplaceTasksRequest struct {
		Tasks []models.Task `json:"tasks"`
	}

	var req ReplaceTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.Tasks == nil {
		req.Tasks = []models.Task{}
	}

	room, err := h.rooms.ReplaceTasks(c.Request.Context(), userID, c.Param("id"), req.Tasks)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetBudget summarizes a single room
func (h *RoomHandler) GetBudget(c *gin.Context) {
	room, ok := middleware.GetRoom(c)
	if !ok {
		apierrors.InternalError(c, "Room not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToBudgetDTO(aggregate.Summarize([]models.Room{*room})))
}

// UploadPhotos runs the multipart "photos" files through the image pipeline
// and appends the results to the room. The quality query parameter selects
// an image profile by name.
func (h *RoomHandler) UploadPhotos(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	profile := h.profile
	if q := c.Query("quality"); q != "" {
		p, err := imaging.ProfileByName(q)
		if err != nil {
			apierrors.BadRequest(c, "Invalid quality, expected high, medium or low")
			return
		}
		profile = p
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, "Upload is too large")
			return
		}
		apierrors.BadRequest(c, "Invalid multipart form")
		return
	}

	headers := form.File["photos"]
	if len(headers) == 0 {
		apierrors.BadRequest(c, "No photos provided")
		return
	}

	files := make([]imaging.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, h.uploadedFile(fh))
	}

	photos := h.images.ProcessImages(c.Request.Context(), files, profile)
	if len(photos) == 0 {
		apierrors.BadRequest(c, services.ErrNoPhotos.Error())
		return
	}

	room, err := h.rooms.AppendPhotos(c.Request.Context(), userID, c.Param("id"), photos)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// uploadedFile adapts a multipart file. Clients often send
// application/octet-stream, so a missing or generic media type is sniffed
// from the content.
func (h *RoomHandler) uploadedFile(fh *multipart.FileHeader) imaging.File {
	f := imaging.File{
		Name: fh.Filename,
		Type: fh.Header.Get("Content-Type"),
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
	if f.Type != "" && f.Type != "application/octet-stream" {
		return f
	}

	src, err := fh.Open()
	if err != nil {
		h.log.Warn("failed to open upload for sniffing", zap.String("file", fh.Filename), zap.Error(err))
		return f
	}
	defer src.Close()

	head := make([]byte, 3072)
	n, _ := io.ReadFull(src, head)
	f.Type = imaging.DetectType(head[:n])
	return f
}

// DeletePhoto removes one photo by its position
func (h *RoomHandler) DeletePhoto(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid photo index")
		return
	}

	room, err := h.rooms.RemovePhoto(c.Request.Context(), userID, c.Param("id"), index)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetThumbnail renders a preview of the room's thumbnail, falling back to its
// first photo
func (h *RoomHandler) GetThumbnail(c *gin.Context) {
	room, ok := middleware.GetRoom(c)
	if !ok {
		apierrors.InternalError(c, "Room not found in context")
		return
	}

	size, err := thumbnailSize(c.Query("size"))
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	source := room.Thumbnail
	if source == "" && len(room.Photos) > 0 {
		source = room.Photos[0]
	}
	if source == "" {
		apierrors.NotFound(c, "Room has no photos")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thumbnail": h.images.GetThumbnail(c.Request.Context(), source, size, thumbnailKey(room.ID, source)),
	})
}

// thumbnailKey ties a cached preview to the exact source image. Data URLs of
// one format share their leading bytes, so the room ID alone would keep
// serving a replaced image.
func thumbnailKey(roomID, source string) string {
	sum := sha256.Sum256([]byte(source))
	return roomID + ":" + hex.EncodeToString(sum[:8])
}

var errInvalidSize = errors.New("size must be an integer between 1 and " + strconv.Itoa(constants.MaxThumbnailSize))

func thumbnailSize(raw string) (int, error) {
	if raw == "" {
		return constants.DefaultThumbnailSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 || size > constants.MaxThumbnailSize {
		return 0, errInvalidSize
	}
	return size, nil
}
