package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/database"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"github.com/yukikurage/oppuss/internal/services"
)

type stubSuggester struct {
	tasks []services.SuggestedTask
}

func (s stubSuggester) SuggestTasks(context.Context, string, string) ([]services.SuggestedTask, error) {
	return s.tasks, nil
}

type handlerTestEnv struct {
	authService *services.AuthService
	houses      *services.HouseService
	rooms       *services.RoomService

	auth     *AuthHandler
	house    *HouseHandler
	room     *RoomHandler
	task     *TaskHandler
	shopping *ShoppingHandler
	budget   *BudgetHandler
	data     *DataHandler
	image    *ImageHandler
}

func setupHandlerTestEnv(t *testing.T, suggester services.TaskSuggester) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	houseRepo := repository.NewHouseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	itemRepo := repository.NewShoppingItemRepository(db)
	dataRepo := repository.NewDataRepository(db)

	authService := services.NewAuthService(userRepo, nil)
	houseService := services.NewHouseService(houseRepo, nil)
	roomService := services.NewRoomService(roomRepo, houseRepo, nil)
	pipeline := imaging.NewPipeline(imaging.WithCache(imaging.NewThumbnailCache(imaging.DefaultCacheSize)))

	return &handlerTestEnv{
		authService: authService,
		houses:      houseService,
		rooms:       roomService,

		auth:     NewAuthHandler(authService),
		house:    NewHouseHandler(houseService, roomService),
		room:     NewRoomHandler(roomService, pipeline, imaging.ProfileMedium, nil),
		task:     NewTaskHandler(services.NewTaskService(roomRepo, houseRepo, suggester, nil)),
		shopping: NewShoppingHandler(services.NewShoppingService(itemRepo, nil)),
		budget:   NewBudgetHandler(houseService, roomService),
		data:     NewDataHandler(services.NewDataService(houseRepo, roomRepo, itemRepo, dataRepo, nil)),
		image:    NewImageHandler(pipeline),
	}
}

func (e *handlerTestEnv) seedRoom(t *testing.T, userID string) (*models.House, *models.Room) {
	t.Helper()
	ctx := context.Background()

	house, err := e.houses.CreateHouse(ctx, userID, services.CreateHouseInput{Name: "Home"})
	require.NoError(t, err)
	room, err := e.rooms.CreateRoom(ctx, userID, services.CreateRoomInput{HouseID: house.ID, Name: "Kitchen", Budget: 1000})
	require.NoError(t, err)
	return house, room
}

// newAuthContext builds a context as it looks after RequireAuth.
func newAuthContext(t *testing.T, method, url string, body any, userID string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var req *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, url, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}
	return c, w
}

func idParam(id string) gin.Param {
	return gin.Param{Key: "id", Value: id}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
