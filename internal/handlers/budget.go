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
	"golang.org/x/sync/errgroup"
)

type BudgetHandler struct {
	houses *services.HouseService
	rooms  *services.RoomService
}

func NewBudgetHandler(houses *services.HouseService, rooms *services.RoomService) *BudgetHandler {
	return &BudgetHandler{
		houses: houses,
		rooms:  rooms,
	}
}

// GetOverview summarizes every room of the user plus a per-house breakdown
func (h *BudgetHandler) GetOverview(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var (
		houses []models.House
		rooms  []models.Room
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		houses, err = h.houses.ListHouses(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		rooms, err = h.rooms.ListRooms(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview(houses, rooms))
}

func overview(houses []models.House, rooms []models.Room) dto.BudgetOverviewResponse {
	return dto.ToBudgetOverviewResponse(aggregate.Summarize(rooms), aggregate.ByHouse(houses, rooms))
}

