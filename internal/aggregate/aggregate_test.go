package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/models"
)

func cost(v float64) *float64 { return &v }

func sampleRooms() []models.Room {
	return []models.Room{
		{
			ID: "r1", HouseID: "h1", Budget: 1000,
			Tasks: []models.Task{
				{ID: "t1", Done: true, Cost: cost(300)},
				{ID: "t2", Done: false, Cost: cost(500)},
				{ID: "t3", Done: true},
			},
		},
		{
			ID: "r2", HouseID: "h1", Budget: 200,
			Tasks: []models.Task{
				{ID: "t4", Done: true, Cost: cost(450)},
				{ID: "t5", Done: true, Cost: cost(math.NaN())},
			},
		},
		{ID: "r3", HouseID: "h2", Budget: 50},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRooms())
	assert.Equal(t, 1250.0, s.Budget)
	assert.Equal(t, 750.0, s.Spent)
	assert.Equal(t, 500.0, s.Remaining)
}

func TestRemainingIsNotClamped(t *testing.T) {
	rooms := RoomsForHouse(sampleRooms(), "h1")
	require.Len(t, rooms, 2)

	over := Summarize(rooms[1:])
	assert.Equal(t, -250.0, over.Remaining)
}

func TestToggleChangesSpentByTaskCost(t *testing.T) {
	rooms := sampleRooms()
	before := TotalSpent(rooms)

	rooms[0].Tasks[1].Done = true
	assert.Equal(t, before+500, TotalSpent(rooms))

	rooms[0].Tasks[1].Done = false
	rooms[0].Tasks[2].Done = false
	assert.Equal(t, before, TotalSpent(rooms))
}

func TestByHouse(t *testing.T) {
	houses := []models.House{{ID: "h2", Name: "Cabin"}, {ID: "h1", Name: "Home"}, {ID: "h3", Name: "Empty"}}

	summaries := ByHouse(houses, sampleRooms())
	require.Len(t, summaries, 3)

	assert.Equal(t, "Cabin", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].Rooms)
	assert.Equal(t, 50.0, summaries[0].Remaining)

	assert.Equal(t, 2, summaries[1].Rooms)
	assert.Equal(t, 1200.0, summaries[1].Budget)
	assert.Equal(t, 750.0, summaries[1].Spent)

	assert.Equal(t, Summary{}, summaries[2].Summary)
}

func TestShoppingViews(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []models.ShoppingItem{
		{ID: "old", CreatedAt: base},
		{ID: "done", Completed: true, CreatedAt: base.Add(time.Hour)},
		{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "undated"},
	}

	active := ActiveItems(items)
	require.Len(t, active, 3)
	assert.Equal(t, []string{"undated", "new", "old"}, ids(active))

	completed := CompletedItems(items)
	assert.Equal(t, []string{"done"}, ids(completed))

	assert.Empty(t, ActiveItems(nil))
}

func ids(items []models.ShoppingItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type countingSource struct {
	version uint64
	rooms   []models.Room
	reads   int
}

func (s *countingSource) Version() uint64 { return s.version }

func (s *countingSource) Snapshot() ([]models.Room, uint64) {
	s.reads++
	return s.rooms, s.version
}

func TestDerived_RecomputesOnlyOnVersionChange(t *testing.T) {
	src := &countingSource{version: 1, rooms: sampleRooms()}
	budget := NewDerived[models.Room](src, TotalBudget)

	assert.Equal(t, 1250.0, budget.Get())
	assert.Equal(t, 1250.0, budget.Get())
	assert.Equal(t, 1, src.reads)

	src.rooms = src.rooms[:1]
	src.version++
	assert.Equal(t, 1000.0, budget.Get())
	assert.Equal(t, 2, src.reads)
}
