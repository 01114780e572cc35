package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/oppuss/internal/dto"
	apierrors "github.com/yukikurage/oppuss/internal/errors"
	"github.com/yukikurage/oppuss/internal/middleware"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

// RoomHandlerTestSuite covers houses, rooms and photos
type RoomHandlerTestSuite struct {
	suite.Suite
	env *handlerTestEnv
}

func (suite *RoomHandlerTestSuite) SetupTest() {
	suite.env = setupHandlerTestEnv(suite.T(), nil)
}

func (suite *RoomHandlerTestSuite) TestListHouses_EmptyIsArray() {
	c, w := newAuthContext(suite.T(), http.MethodGet, "/api/houses", nil, "alice")

	suite.env.house.ListHouses(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), "[]", w.Body.String())
}

func (suite *RoomHandlerTestSuite) TestCreateHouse_Success() {
	c, w := newAuthContext(suite.T(), http.MethodPost, "/api/houses", map[string]any{"name": "  Cottage ", "address": "1 Lane"}, "alice")

	suite.env.house.CreateHouse(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	house := decode[models.House](suite.T(), w)
	assert.Equal(suite.T(), "Cottage", house.Name)
	assert.Equal(suite.T(), "alice", house.UserID)
	assert.NotEmpty(suite.T(), house.ID)
}

func (suite *RoomHandlerTestSuite) TestCreateHouse_NameRequired() {
	c, w := newAuthContext(suite.T(), http.MethodPost, "/api/houses", map[string]any{"name": "   "}, "alice")

	suite.env.house.CreateHouse(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RoomHandlerTestSuite) TestCreateHouse_Unauthorized() {
	c, w := newAuthContext(suite.T(), http.MethodPost, "/api/houses", map[string]any{"name": "Cottage"}, "")

	suite.env.house.CreateHouse(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *RoomHandlerTestSuite) TestDeleteHouse_CascadesRooms() {
	house, _ := suite.env.seedRoom(suite.T(), "alice")

	c, w := newAuthContext(suite.T(), http.MethodDelete, "/api/houses/"+house.ID, nil, "alice", idParam(house.ID))
	suite.env.house.DeleteHouse(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	rooms, err := suite.env.rooms.ListRooms(context.Background(), "alice")
	suite.Require().NoError(err)
	assert.Empty(suite.T(), rooms)
}

func (suite *RoomHandlerTestSuite) TestRequireHouseAccess_ForeignHouseIsNotFound() {
	house, _ := suite.env.seedRoom(suite.T(), "alice")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "mallory")
		c.Next()
	})
	r.GET("/api/houses/:id", middleware.RequireHouseAccess(suite.env.houses, nil), suite.env.house.GetHouse)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/houses/"+house.ID, nil))

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), apierrors.ErrCodeNotFound, decode[apierrors.APIError](suite.T(), w).Code)
}

func (suite *RoomHandlerTestSuite) TestRequireRoomAccess_OwnerSeesRoom() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "alice")
		c.Next()
	})
	r.GET("/api/rooms/:id", middleware.RequireRoomAccess(suite.env.rooms, nil), suite.env.room.GetRoom)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.ID, nil))

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Kitchen", decode[models.Room](suite.T(), w).Name)
}

func (suite *RoomHandlerTestSuite) TestListRooms_FilterByHouse() {
	house, _ := suite.env.seedRoom(suite.T(), "alice")
	suite.env.seedRoom(suite.T(), "alice")

	c, w := newAuthContext(suite.T(), http.MethodGet, "/api/rooms?house_id="+house.ID, nil, "alice")
	suite.env.room.ListRooms(c)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), decode[[]models.Room](suite.T(), w), 1)

	c, w = newAuthContext(suite.T(), http.MethodGet, "/api/rooms", nil, "alice")
	suite.env.room.ListRooms(c)
	assert.Len(suite.T(), decode[[]models.Room](suite.T(), w), 2)
}

func (suite *RoomHandlerTestSuite) TestCreateRoom_Validation() {
	house, _ := suite.env.seedRoom(suite.T(), "alice")

	cases := map[string]struct {
		body   map[string]any
		status int
	}{
		"negative budget": {map[string]any{"houseId": house.ID, "name": "Bath", "budget": -1}, http.StatusBadRequest},
		"bad deadline":    {map[string]any{"houseId": house.ID, "name": "Bath", "deadline": "next week"}, http.StatusBadRequest},
		"foreign house":   {map[string]any{"houseId": "missing", "name": "Bath"}, http.StatusNotFound},
		"valid":           {map[string]any{"houseId": house.ID, "name": "Bath", "budget": 500, "deadline": "2026-12-31"}, http.StatusCreated},
	}

	for name, tc := range cases {
		suite.Run(name, func() {
			c, w := newAuthContext(suite.T(), http.MethodPost, "/api/rooms", tc.body, "alice")
			suite.env.room.CreateRoom(c)
			assert.Equal(suite.T(), tc.status, w.Code)
		})
	}
}

func (suite *RoomHandlerTestSuite) TestReplaceTasks_AssignsIDsAndBudget() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	body := map[string]any{"tasks": []map[string]any{
		{"title": "Paint", "done": true, "cost": 250},
		{"title": "Tiles", "cost": 400},
	}}
	c, w := newAuthContext(suite.T(), http.MethodPut, "/api/rooms/"+room.ID+"/tasks", body, "alice", idParam(room.ID))
	suite.env.room.ReplaceTasks(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	updated := decode[models.Room](suite.T(), w)
	suite.Require().Len(updated.Tasks, 2)
	for _, task := range updated.Tasks {
		assert.NotEmpty(suite.T(), task.ID)
	}

	stored, err := suite.env.rooms.GetRoom(context.Background(), "alice", room.ID)
	suite.Require().NoError(err)
	c, w = newAuthContext(suite.T(), http.MethodGet, "/api/rooms/"+room.ID+"/budget", nil, "alice", idParam(room.ID))
	c.Set(middleware.ContextKeyRoom, stored)
	suite.env.room.GetBudget(c)

	budget := decode[dto.BudgetDTO](suite.T(), w)
	assert.Equal(suite.T(), dto.BudgetDTO{Budget: 1000, Spent: 250, Remaining: 750}, budget)
}

func (suite *RoomHandlerTestSuite) TestReplaceTasks_RejectsEmptyTitle() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	body := map[string]any{"tasks": []map[string]any{{"title": " "}}}
	c, w := newAuthContext(suite.T(), http.MethodPut, "/api/rooms/"+room.ID+"/tasks", body, "alice", idParam(room.ID))
	suite.env.room.ReplaceTasks(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RoomHandlerTestSuite) TestUploadPhotos_SniffsOctetStream() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photos"; filename="wall.png"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	suite.Require().NoError(err)
	_, err = part.Write(testPNG(suite.T(), 8, 6))
	suite.Require().NoError(err)
	suite.Require().NoError(mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/rooms/"+room.ID+"/photos?quality=low", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	c.Params = gin.Params{idParam(room.ID)}
	c.Set("user_id", "alice")

	suite.env.room.UploadPhotos(c)

	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Room](suite.T(), w)
	suite.Require().Len(updated.Photos, 1)
	assert.True(suite.T(), strings.HasPrefix(updated.Photos[0], "data:image/png;base64,"))
}

func (suite *RoomHandlerTestSuite) TestUploadPhotos_UnknownQuality() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	c, w := newAuthContext(suite.T(), http.MethodPost, "/api/rooms/"+room.ID+"/photos?quality=ultra", nil, "alice", idParam(room.ID))
	suite.env.room.UploadPhotos(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RoomHandlerTestSuite) TestDeletePhoto_OutOfRange() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	c, w := newAuthContext(suite.T(), http.MethodDelete, "/api/rooms/"+room.ID+"/photos/3", nil, "alice",
		idParam(room.ID), gin.Param{Key: "index", Value: "3"})
	suite.env.room.DeletePhoto(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RoomHandlerTestSuite) TestGetThumbnail() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	c, w := newAuthContext(suite.T(), http.MethodGet, "/api/rooms/"+room.ID+"/thumbnail", nil, "alice", idParam(room.ID))
	c.Set(middleware.ContextKeyRoom, room)
	suite.env.room.GetThumbnail(c)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	photo := "data:image/png;base64," + base64PNG(suite.T(), 40, 20)
	updated, err := suite.env.rooms.AppendPhotos(context.Background(), "alice", room.ID, []string{photo})
	suite.Require().NoError(err)

	c, w = newAuthContext(suite.T(), http.MethodGet, "/api/rooms/"+room.ID+"/thumbnail?size=10", nil, "alice", idParam(room.ID))
	c.Set(middleware.ContextKeyRoom, updated)
	suite.env.room.GetThumbnail(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	thumb := decode[map[string]string](suite.T(), w)["thumbnail"]
	assert.True(suite.T(), strings.HasPrefix(thumb, "data:image/jpeg;base64,"))

	c, w = newAuthContext(suite.T(), http.MethodGet, "/api/rooms/"+room.ID+"/thumbnail?size=0", nil, "alice", idParam(room.ID))
	c.Set(middleware.ContextKeyRoom, updated)
	suite.env.room.GetThumbnail(c)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RoomHandlerTestSuite) TestGetThumbnail_FollowsReplacedImage() {
	_, room := suite.env.seedRoom(suite.T(), "alice")

	thumbnailOf := func(source string) string {
		c, w := newAuthContext(suite.T(), http.MethodPatch, "/api/rooms/"+room.ID,
			map[string]any{"thumbnail": source}, "alice", idParam(room.ID))
		suite.env.room.UpdateRoom(c)
		suite.Require().Equal(http.StatusOK, w.Code)
		updated := decode[models.Room](suite.T(), w)

		c, w = newAuthContext(suite.T(), http.MethodGet, "/api/rooms/"+room.ID+"/thumbnail?size=32", nil, "alice", idParam(room.ID))
		c.Set(middleware.ContextKeyRoom, &updated)
		suite.env.room.GetThumbnail(c)
		suite.Require().Equal(http.StatusOK, w.Code)
		return decode[map[string]string](suite.T(), w)["thumbnail"]
	}

	red := "data:image/jpeg;base64," + base64JPEG(suite.T(), color.RGBA{R: 255, A: 255})
	blue := "data:image/jpeg;base64," + base64JPEG(suite.T(), color.RGBA{B: 255, A: 255})
	suite.Require().Equal(red[:50], blue[:50])

	first := thumbnailOf(red)
	second := thumbnailOf(blue)

	assert.NotEqual(suite.T(), first, second)
	assert.Equal(suite.T(), first, thumbnailOf(red))
}

func (suite *RoomHandlerTestSuite) TestBudgetOverview() {
	ctx := context.Background()
	house, room := suite.env.seedRoom(suite.T(), "alice")
	_, err := suite.env.rooms.ReplaceTasks(ctx, "alice", room.ID, []models.Task{
		{Title: "Paint", Done: true, Cost: ptr(300.0)},
		{Title: "Sand", Done: false, Cost: ptr(50.0)},
	})
	suite.Require().NoError(err)
	_, err = suite.env.houses.CreateHouse(ctx, "alice", services.CreateHouseInput{Name: "Empty"})
	suite.Require().NoError(err)

	c, w := newAuthContext(suite.T(), http.MethodGet, "/api/budget", nil, "alice")
	suite.env.budget.GetOverview(c)

	suite.Require().Equal(http.StatusOK, w.Code)
	overview := decode[dto.BudgetOverviewResponse](suite.T(), w)
	assert.Equal(suite.T(), dto.BudgetDTO{Budget: 1000, Spent: 300, Remaining: 700}, overview.Total)
	suite.Require().Len(overview.Houses, 2)

	byID := map[string]dto.HouseBudgetDTO{}
	for _, h := range overview.Houses {
		byID[h.HouseID] = h
	}
	assert.Equal(suite.T(), 1, byID[house.ID].Rooms)
	assert.Equal(suite.T(), 300.0, byID[house.ID].Spent)
}

func TestRoomHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RoomHandlerTestSuite))
}

func ptr[T any](v T) *T { return &v }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: 100, B: uint8(y * 20), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func base64PNG(t *testing.T, w, h int) string {
	return base64.StdEncoding.EncodeToString(testPNG(t, w, h))
}

func base64JPEG(t *testing.T, fill color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
