package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

var errGateway = errors.New("gateway unavailable")

// fakeGateway keeps entities in maps and fails the next call when fail is set.
type fakeGateway struct {
	mu     sync.Mutex
	fail   bool
	houses []models.House
	rooms  []models.Room
	items  []models.ShoppingItem

	// seen records the task collections handed to ReplaceTasks.
	seen [][]models.Task
}

func (g *fakeGateway) failing() error {
	if g.fail {
		g.fail = false
		return errGateway
	}
	return nil
}

func (g *fakeGateway) ListHouses(context.Context, string) ([]models.House, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	return append([]models.House(nil), g.houses...), nil
}

func (g *fakeGateway) CreateHouse(_ context.Context, userID string, in services.CreateHouseInput) (*models.House, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	h := models.House{ID: uuid.NewString(), UserID: userID, Name: in.Name}
	g.houses = append([]models.House{h}, g.houses...)
	return &h, nil
}

func (g *fakeGateway) UpdateHouse(_ context.Context, _ string, id string, in services.UpdateHouseInput) (*models.House, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	for i := range g.houses {
		if g.houses[i].ID == id {
			in.Apply(&g.houses[i])
			h := g.houses[i]
			return &h, nil
		}
	}
	return nil, services.ErrHouseNotFound
}

func (g *fakeGateway) DeleteHouse(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failing()
}

func (g *fakeGateway) ListRooms(context.Context, string) ([]models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	return append([]models.Room(nil), g.rooms...), nil
}

func (g *fakeGateway) CreateRoom(_ context.Context, _ string, in services.CreateRoomInput) (*models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	r := models.Room{ID: uuid.NewString(), HouseID: in.HouseID, Name: in.Name, Budget: in.Budget, Tasks: []models.Task{}}
	g.rooms = append(g.rooms, r)
	return &r, nil
}

func (g *fakeGateway) UpdateRoom(_ context.Context, _ string, id string, in services.UpdateRoomInput) (*models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	for i := range g.rooms {
		if g.rooms[i].ID == id {
			in.Apply(&g.rooms[i])
			r := g.rooms[i].Clone()
			return &r, nil
		}
	}
	return nil, services.ErrRoomNotFound
}

func (g *fakeGateway) ReplaceTasks(_ context.Context, _ string, id string, tasks []models.Task) (*models.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, tasks)
	if err := g.failing(); err != nil {
		return nil, err
	}
	for i := range g.rooms {
		if g.rooms[i].ID == id {
			stored := make([]models.Task, len(tasks))
			for j, t := range tasks {
				if t.ID == "" {
					t.ID = uuid.NewString()
				}
				stored[j] = t.Clone()
			}
			g.rooms[i].Tasks = stored
			r := g.rooms[i].Clone()
			return &r, nil
		}
	}
	return nil, services.ErrRoomNotFound
}

func (g *fakeGateway) DeleteRoom(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failing()
}

func (g *fakeGateway) ListItems(context.Context, string) ([]models.ShoppingItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	return append([]models.ShoppingItem(nil), g.items...), nil
}

func (g *fakeGateway) CreateItem(_ context.Context, userID string, in services.CreateShoppingItemInput) (*models.ShoppingItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	it := models.ShoppingItem{ID: uuid.NewString(), UserID: userID, Title: in.Title, Completed: in.Completed, Quantity: 1}
	g.items = append([]models.ShoppingItem{it}, g.items...)
	return &it, nil
}

func (g *fakeGateway) UpdateItem(_ context.Context, _ string, id string, in services.UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return nil, err
	}
	for i := range g.items {
		if g.items[i].ID == id {
			in.Apply(&g.items[i])
			it := g.items[i]
			return &it, nil
		}
	}
	return nil, services.ErrItemNotFound
}

func (g *fakeGateway) DeleteItem(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failing()
}

func (g *fakeGateway) ClearCompleted(context.Context, string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failing(); err != nil {
		return 0, err
	}
	return 1, nil
}

func (g *fakeGateway) failNext() {
	g.mu.Lock()
	g.fail = true
	g.mu.Unlock()
}

type transition struct {
	op    string
	state MutationState
}

type recorder struct {
	mu  sync.Mutex
	log []transition
}

func (r *recorder) observe(_ string, op string, state MutationState) {
	r.mu.Lock()
	r.log = append(r.log, transition{op, state})
	r.mu.Unlock()
}

func (r *recorder) last() transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log[len(r.log)-1]
}

func newTestStores(gw *fakeGateway, user UserSource) (*Stores, *recorder) {
	rec := &recorder{}
	return New(gw, gw, gw, user, WithObserver(rec.observe)), rec
}

func TestLoad_WithoutUserIsEmpty(t *testing.T) {
	gw := &fakeGateway{houses: []models.House{{ID: "h1"}}}
	s, _ := newTestStores(gw, StaticUser(""))

	require.NoError(t, s.LoadAll(context.Background()))
	assert.Zero(t, s.Houses.Len())

	_, err := s.Houses.Add(context.Background(), services.CreateHouseInput{Name: "Home"})
	assert.ErrorIs(t, err, ErrNoCurrentUser)
}

func TestLoad_FailureResetsToEmpty(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{houses: []models.House{{ID: "h1", Name: "Home"}}}
	s, _ := newTestStores(gw, StaticUser("alice"))

	require.NoError(t, s.Houses.Load(ctx))
	require.Equal(t, 1, s.Houses.Len())

	gw.failNext()
	err := s.Houses.Load(ctx)
	assert.ErrorIs(t, err, errGateway)
	assert.Zero(t, s.Houses.Len())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	s, _ := newTestStores(gw, StaticUser("alice"))

	var seen [][]models.House
	unsubscribe := s.Houses.Subscribe(func(h []models.House) { seen = append(seen, h) })
	require.Len(t, seen, 1, "subscribe delivers the current state immediately")

	_, err := s.Houses.Add(ctx, services.CreateHouseInput{Name: "Home"})
	require.NoError(t, err)

	// pending insert, then reconciliation with the gateway's ID
	require.Len(t, seen, 3)
	assert.True(t, IsTemporaryID(seen[1][0].ID))
	assert.False(t, IsTemporaryID(seen[2][0].ID))

	unsubscribe()
	unsubscribe()
	_, err = s.Houses.Add(ctx, services.CreateHouseInput{Name: "Cabin"})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestHouseStore_AddRollsBack(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	s, rec := newTestStores(gw, StaticUser("alice"))

	var during []models.House
	s.Houses.Subscribe(func(h []models.House) {
		if len(h) > 0 {
			during = h
		}
	})

	gw.failNext()
	_, err := s.Houses.Add(ctx, services.CreateHouseInput{Name: "Home"})
	assert.ErrorIs(t, err, errGateway)
	assert.Zero(t, s.Houses.Len())
	require.Len(t, during, 1, "the pending house was published before the gateway call")
	assert.Equal(t, transition{"add", RolledBack}, rec.last())
}

func TestHouseStore_UpdateRollsBackToPrior(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{houses: []models.House{{ID: "h1", Name: "Home", Address: "1 Main St"}}}
	s, rec := newTestStores(gw, StaticUser("alice"))
	require.NoError(t, s.Houses.Load(ctx))

	name := "Renamed"
	gw.failNext()
	_, err := s.Houses.Update(ctx, "h1", services.UpdateHouseInput{Name: &name})
	assert.ErrorIs(t, err, errGateway)

	h, ok := s.Houses.Get("h1")
	require.True(t, ok)
	assert.Equal(t, "Home", h.Name)
	assert.Equal(t, transition{"update", RolledBack}, rec.last())

	updated, err := s.Houses.Update(ctx, "h1", services.UpdateHouseInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, transition{"update", Confirmed}, rec.last())

	_, err = s.Houses.Update(ctx, "missing", services.UpdateHouseInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestStores_DeleteHouseCascadesAndRestores(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		houses: []models.House{{ID: "h1"}, {ID: "h2"}},
		rooms:  []models.Room{{ID: "r1", HouseID: "h1"}, {ID: "r2", HouseID: "h2"}, {ID: "r3", HouseID: "h1"}},
	}
	s, _ := newTestStores(gw, StaticUser("alice"))
	require.NoError(t, s.LoadAll(ctx))

	gw.failNext()
	err := s.DeleteHouse(ctx, "h1")
	assert.ErrorIs(t, err, errGateway)
	assert.Equal(t, 2, s.Houses.Len())
	assert.Equal(t, 3, s.Rooms.Len())
	houses := s.Houses.Items()
	assert.Equal(t, "h1", houses[0].ID, "a restored house keeps its position")

	require.NoError(t, s.DeleteHouse(ctx, "h1"))
	assert.Equal(t, 1, s.Houses.Len())
	rooms := s.Rooms.Items()
	require.Len(t, rooms, 1)
	assert.Equal(t, "r2", rooms[0].ID)
}

func TestRoomStore_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{rooms: []models.Room{{ID: "r1", HouseID: "h1", Budget: 1000, Tasks: []models.Task{}}}}
	s, _ := newTestStores(gw, StaticUser("alice"))
	require.NoError(t, s.Rooms.Load(ctx))

	cost := 250.0
	task, err := s.Rooms.AddTask(ctx, "r1", services.CreateTaskInput{Title: "Tile floor", Cost: &cost})
	require.NoError(t, err)
	assert.False(t, IsTemporaryID(task.ID))
	assert.Empty(t, gw.seen[0][0].ID, "temporary IDs are not sent to the gateway")

	assert.Equal(t, 0.0, s.Budget().Spent)
	require.NoError(t, s.Rooms.ToggleTask(ctx, "r1", task.ID))
	assert.Equal(t, 250.0, s.Budget().Spent)
	assert.Equal(t, 750.0, s.Budget().Remaining)

	gw.failNext()
	err = s.Rooms.ToggleTask(ctx, "r1", task.ID)
	assert.ErrorIs(t, err, errGateway)
	assert.Equal(t, 250.0, s.Budget().Spent, "a rejected toggle is rolled back")

	err = s.Rooms.DeleteTask(ctx, "r1", "nope")
	assert.ErrorIs(t, err, services.ErrTaskNotFound)

	require.NoError(t, s.Rooms.DeleteTask(ctx, "r1", task.ID))
	room, ok := s.Rooms.Get("r1")
	require.True(t, ok)
	assert.Empty(t, room.Tasks)
}

func TestRoomStore_AddTaskRollsBack(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{rooms: []models.Room{{ID: "r1", Tasks: []models.Task{{ID: "t1", Title: "Existing"}}}}}
	s, _ := newTestStores(gw, StaticUser("alice"))
	require.NoError(t, s.Rooms.Load(ctx))

	gw.failNext()
	_, err := s.Rooms.AddTask(ctx, "r1", services.CreateTaskInput{Title: "New"})
	assert.ErrorIs(t, err, errGateway)

	room, _ := s.Rooms.Get("r1")
	require.Len(t, room.Tasks, 1)
	assert.Equal(t, "t1", room.Tasks[0].ID)
}

func TestShoppingStore_ClearCompletedRollsBack(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{items: []models.ShoppingItem{
		{ID: "a", Title: "Paint"},
		{ID: "b", Title: "Tape", Completed: true},
		{ID: "c", Title: "Nails"},
	}}
	s, _ := newTestStores(gw, StaticUser("alice"))
	require.NoError(t, s.Shopping.Load(ctx))

	gw.failNext()
	_, err := s.Shopping.ClearCompleted(ctx)
	assert.ErrorIs(t, err, errGateway)
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(s.Shopping.Items()))

	removed, err := s.Shopping.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Equal(t, []string{"a", "c"}, itemIDs(s.Shopping.Items()))

	toggled, err := s.Shopping.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.Len(t, s.CompletedItems(), 1)
	assert.Len(t, s.ActiveItems(), 1)
}

func TestMutation_TerminalStatesAreFinal(t *testing.T) {
	reverts := 0
	rec := &recorder{}
	m := newMutation("rooms", "update", rec.observe, func() { reverts++ })
	assert.Equal(t, Pending, m.State())

	m.Rollback()
	m.Rollback()
	m.Confirm()
	assert.Equal(t, RolledBack, m.State())
	assert.Equal(t, 1, reverts)
	assert.Equal(t, []transition{{"update", Pending}, {"update", RolledBack}}, rec.log)
}

func itemIDs(items []models.ShoppingItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
