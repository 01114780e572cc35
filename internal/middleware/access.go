package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
	"go.uber.org/zap"
)

const (
	// ContextKeyHouse holds the *models.House loaded by RequireHouseAccess.
	ContextKeyHouse = "house"
	// ContextKeyRoom holds the *models.Room loaded by RequireRoomAccess.
	ContextKeyRoom = "room"
)

// RequireHouseAccess loads the house named by the :id parameter and checks
// that it belongs to the current user.
// Foreign houses are reported as not found to avoid leaking their existence.
func RequireHouseAccess(houses *services.HouseService, log *zap.Logger) gin.HandlerFunc {
	log = logging.OrNop(log)
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		house, err := houses.GetHouse(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrHouseNotFound) {
				apierrors.NotFound(c, "House not found")
			} else {
				log.Error("failed to load house", zap.String("house_id", c.Param("id")), zap.Error(err))
				apierrors.InternalError(c, "Failed to load house")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyHouse, house)
		c.Next()
	}
}

// RequireRoomAccess loads the room named by the :id parameter and checks
// that its house belongs to the current user.
func RequireRoomAccess(rooms *services.RoomService, log *zap.Logger) gin.HandlerFunc {
	log = logging.OrNop(log)
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		room, err := rooms.GetRoom(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, services.ErrRoomNotFound) {
				apierrors.NotFound(c, "Room not found")
			} else {
				log.Error("failed to load room", zap.String("room_id", c.Param("id")), zap.Error(err))
				apierrors.InternalError(c, "Failed to load room")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyRoom, room)
		c.Next()
	}
}

// GetHouse returns the house stored by RequireHouseAccess
func GetHouse(c *gin.Context) (*models.House, bool) {
	v, exists := c.Get(ContextKeyHouse)
	if !exists {
		return nil, false
	}
	house, ok := v.(*models.House)
	return house, ok
}

// GetRoom returns the room stored by RequireRoomAccess
func GetRoom(c *gin.Context) (*models.Room, bool) {
	v, exists := c.Get(ContextKeyRoom)
	if !exists {
		return nil, false
	}
	room, ok := v.(*models.Room)
	return room, ok
}
