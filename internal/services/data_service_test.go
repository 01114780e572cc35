package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/constants"
)

const exampleImport = `{
	"version": 3,
	"timestamp": "2024-05-01T10:00:00Z",
	"data": {
		"houses": [{"id": "h1", "name": "Home"}],
		"rooms": [{"id": "r1", "name": "Kitchen", "houseId": "h1", "budget": 5000, "tasks": []}],
		"shoppingItems": [{"id": "s1", "title": "Paint", "completed": false}]
	}
}`

func TestDataService_ImportExample(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)

	result := env.data.Import(ctx, "alice", []byte(exampleImport))
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Successfully imported 1 houses, 1 rooms and 1 shopping items", result.Message)

	houses, err := env.houses.ListHouses(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, houses, 1)
	assert.Equal(t, "Home", houses[0].Name)
	assert.NotEqual(t, "h1", houses[0].ID)

	rooms, err := env.rooms.ListRooms(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, houses[0].ID, rooms[0].HouseID)
	assert.Equal(t, 5000.0, rooms[0].Budget)

	items, err := env.shopping.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDataService_ImportReplacesExisting(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)
	env.seedRoom(t, "alice", 10)
	env.seedRoom(t, "bob", 10)

	result := env.data.Import(ctx, "alice", []byte(exampleImport))
	require.True(t, result.Success, result.Message)

	houses, err := env.houses.ListHouses(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, houses, 1)

	others, err := env.houses.ListHouses(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestDataService_ImportRejectsWithoutChanges(t *testing.T) {
	cases := map[string]struct {
		payload string
		message string
	}{
		"not json":            {`{`, "Invalid data format"},
		"missing data":        {`{"version": 3}`, "Invalid data format"},
		"houses not array":    {`{"version": 3, "data": {"houses": {}, "rooms": []}}`, "Invalid data format"},
		"missing rooms":       {`{"version": 3, "data": {"houses": []}}`, "Invalid data format"},
		"old version":         {`{"version": 1, "data": {"houses": [], "rooms": []}}`, "Incompatible data version"},
		"future version":      {`{"version": 4, "data": {"houses": [], "rooms": []}}`, "Incompatible data version"},
		"version as string":   {`{"version": "3", "data": {"houses": [], "rooms": []}}`, "Invalid data format"},
		"house without name":  {`{"version": 3, "data": {"houses": [{"id": "h1"}], "rooms": []}}`, "Invalid house data found"},
		"house name not text": {`{"version": 3, "data": {"houses": [{"id": "h1", "name": 7}], "rooms": []}}`, "Invalid house data found"},
		"duplicate house": {
			`{"version": 3, "data": {"houses": [{"id": "h1", "name": "A"}, {"id": "h1", "name": "B"}], "rooms": []}}`,
			"Duplicate house id found",
		},
		"budget as string": {
			`{"version": 3, "data": {"houses": [{"id": "h1", "name": "A"}], "rooms": [{"id": "r1", "name": "K", "houseId": "h1", "budget": "10", "tasks": []}]}}`,
			"Invalid room data found",
		},
		"negative budget": {
			`{"version": 3, "data": {"houses": [{"id": "h1", "name": "A"}], "rooms": [{"id": "r1", "name": "K", "houseId": "h1", "budget": -5, "tasks": []}]}}`,
			"Invalid room data found",
		},
		"tasks missing": {
			`{"version": 3, "data": {"houses": [{"id": "h1", "name": "A"}], "rooms": [{"id": "r1", "name": "K", "houseId": "h1", "budget": 10}]}}`,
			"Invalid room data found",
		},
		"dangling house reference": {
			`{"version": 3, "data": {"houses": [{"id": "h1", "name": "A"}], "rooms": [{"id": "r1", "name": "K", "houseId": "h2", "budget": 10, "tasks": []}]}}`,
			"Room references non-existent house",
		},
		"item completed missing": {
			`{"version": 3, "data": {"houses": [], "rooms": [], "shoppingItems": [{"id": "s1", "title": "Paint"}]}}`,
			"Invalid shopping item data found",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := setupServices(t, nil)
			house, _ := env.seedRoom(t, "alice", 10)

			result := env.data.Import(ctx, "alice", []byte(tc.payload))
			assert.False(t, result.Success)
			assert.Equal(t, tc.message, result.Message)

			houses, err := env.houses.ListHouses(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, houses, 1)
			assert.Equal(t, house.ID, houses[0].ID)
		})
	}
}

func TestDataService_ImportVersion2KeepsShoppingList(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)

	_, err := env.shopping.CreateItem(ctx, "alice", CreateShoppingItemInput{Title: "Nails"})
	require.NoError(t, err)

	payload := `{"version": 2, "data": {"houses": [{"id": "h1", "name": "Home"}], "rooms": [
		{"id": "r1", "name": "Bath", "houseId": "h1", "budget": 300, "tasks": [
			{"id": "t1", "title": "Grout", "done": true, "cost": "lots"},
			{"title": "Mirror", "done": false, "cost": 40}
		]}
	]}}`
	result := env.data.Import(ctx, "alice", []byte(payload))
	require.True(t, result.Success, result.Message)

	items, err := env.shopping.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nails", items[0].Title)

	rooms, err := env.rooms.ListRooms(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Len(t, rooms[0].Tasks, 2)
	assert.Nil(t, rooms[0].Tasks[0].Cost)
	assert.Equal(t, "t1", rooms[0].Tasks[0].ID)
	assert.NotEmpty(t, rooms[0].Tasks[1].ID)
	require.NotNil(t, rooms[0].Tasks[1].Cost)
	assert.Equal(t, 40.0, *rooms[0].Tasks[1].Cost)
}

func TestDataService_ExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)
	_, room := env.seedRoom(t, "alice", 800)
	_, err := env.tasks.AddTask(ctx, "alice", room.ID, CreateTaskInput{Title: "Tile", Done: true, Cost: ptr(250.0)})
	require.NoError(t, err)
	_, err = env.shopping.CreateItem(ctx, "alice", CreateShoppingItemInput{Title: "Grout", Quantity: 2})
	require.NoError(t, err)

	doc, err := env.data.Export(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, constants.ExportVersion, doc.Version)
	assert.Equal(t, "alice", doc.UserID)
	require.Len(t, doc.Data.Rooms, 1)
	require.Len(t, doc.Data.ShoppingItems, 1)

	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	other := setupServices(t, nil)
	result := other.data.Import(ctx, "carol", payload)
	require.True(t, result.Success, result.Message)

	rooms, err := other.rooms.ListRooms(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Kitchen", rooms[0].Name)
	require.Len(t, rooms[0].Tasks, 1)
	assert.True(t, rooms[0].Tasks[0].Done)
	assert.Equal(t, 250.0, *rooms[0].Tasks[0].Cost)
	assert.True(t, rooms[0].CreatedAt.Equal(doc.Data.Rooms[0].CreatedAt))
}

func TestDataService_ImportEmptyShoppingListReplacesCurrent(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)
	env.seedRoom(t, "alice", 100)

	doc, err := env.data.Export(ctx, "alice")
	require.NoError(t, err)
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.JSONEq(t, `[]`, string(raw.Data["shoppingItems"]))

	_, err = env.shopping.CreateItem(ctx, "alice", CreateShoppingItemInput{Title: "Added later"})
	require.NoError(t, err)

	result := env.data.Import(ctx, "alice", payload)
	require.True(t, result.Success, result.Message)

	items, err := env.shopping.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDataService_ImportVersion3WithoutShoppingKey(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)

	_, err := env.shopping.CreateItem(ctx, "alice", CreateShoppingItemInput{Title: "Nails"})
	require.NoError(t, err)

	result := env.data.Import(ctx, "alice", []byte(`{"version": 3, "data": {"houses": [], "rooms": []}}`))
	require.True(t, result.Success, result.Message)

	items, err := env.shopping.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDataService_ClearAll(t *testing.T) {
	ctx := context.Background()
	env := setupServices(t, nil)
	env.seedRoom(t, "alice", 10)
	env.seedRoom(t, "alice", 20)

	result := env.data.ClearAll(ctx, "alice")
	require.True(t, result.Success)
	assert.Equal(t, "Successfully deleted 2 houses and all associated rooms", result.Message)

	rooms, err := env.rooms.ListRooms(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}
