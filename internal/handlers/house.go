package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/oppuss/internal/aggregate"
	"github.com/yukikurage/oppuss/internal/dto"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/middleware"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

type HouseHandler struct {
	houses *services.HouseService
	rooms  *services.RoomService
}

func NewHouseHandler(houses *services.HouseService, rooms *services.RoomService) *HouseHandler {
	return &HouseHandler{
		houses: houses,
		rooms:  rooms,
	}
}

// ListHouses returns the current user's houses, most recent first
func (h *HouseHandler) ListHouses(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	houses, err := h.houses.ListHouses(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if houses == nil {
		houses = []models.House{}
	}

	c.JSON(http.StatusOK, houses)
}

// CreateHouse creates a house for the current user
func (h *HouseHandler) CreateHouse(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req services.CreateHouseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	house, err := h.houses.CreateHouse(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, house)
}

// GetHouse returns the house loaded by RequireHouseAccess
func (h *HouseHandler) GetHouse(c *gin.Context) {
	house, ok := middleware.GetHouse(c)
	if !ok {
		apierrors.InternalError(c, "House not found in context")
		return
	}

	c.JSON(http.StatusOK, house)
}

// UpdateHouse applies a partial update
func (h *HouseHandler) UpdateHouse(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateHouseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	house, err := h.houses.UpdateHouse(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, house)
}

// DeleteHouse deletes the house together with its rooms
func (h *HouseHandler) DeleteHouse(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.houses.DeleteHouse(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "House deleted successfully",
	})
}

// ListRooms returns the rooms of one house
func (h *HouseHandler) ListRooms(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rooms, err := h.rooms.ListRoomsForHouse(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}

	c.JSON(http.StatusOK, rooms)
}

// GetBudget summarizes the budget of one house's rooms
func (h *HouseHandler) GetBudget(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	rooms, err := h.rooms.ListRoomsForHouse(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBudgetDTO(aggregate.Summarize(rooms)))
}
