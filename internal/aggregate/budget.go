// Package aggregate derives budget figures and shopping list views from store
// snapshots. Every function is pure; Derived adds memoization keyed by the
// source store's version.
package aggregate

import (
	"math"

	"github.com/yukikurage/oppuss/internal/models"
)

// Summary holds the budget figures for a set of rooms.
type Summary struct {
	Budget    float64
	Spent     float64
	Remaining float64
}

// HouseSummary is the Summary of one house's rooms.
type HouseSummary struct {
	HouseID string
	Name    string
	Rooms   int
	Summary
}

// TotalBudget sums the budget of every room.
func TotalBudget(rooms []models.Room) float64 {
	var total float64
	for _, r := range rooms {
		total += amount(&r.Budget)
	}
	return total
}

// TotalSpent sums the cost of completed tasks across rooms.
func TotalSpent(rooms []models.Room) float64 {
	var total float64
	for i := range rooms {
		total += RoomSpent(rooms[i])
	}
	return total
}

// RoomSpent sums the cost of the room's completed tasks. Tasks without a
// usable cost count as zero.
func RoomSpent(room models.Room) float64 {
	var spent float64
	for _, t := range room.Tasks {
		if t.Done {
			spent += amount(t.Cost)
		}
	}
	return spent
}

// Remaining is budget minus spent. It goes negative when over budget.
func Remaining(budget, spent float64) float64 {
	return budget - spent
}

// Summarize computes the Summary for rooms.
func Summarize(rooms []models.Room) Summary {
	budget := TotalBudget(rooms)
	spent := TotalSpent(rooms)
	return Summary{
		Budget:    budget,
		Spent:     spent,
		Remaining: Remaining(budget, spent),
	}
}

// RoomsForHouse returns the rooms belonging to houseID, keeping their order.
func RoomsForHouse(rooms []models.Room, houseID string) []models.Room {
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.HouseID == houseID {
			out = append(out, r)
		}
	}
	return out
}

// ByHouse summarizes each house in the order given. Rooms of houses not in
// the list are ignored.
func ByHouse(houses []models.House, rooms []models.Room) []HouseSummary {
	grouped := make(map[string][]models.Room, len(houses))
	for _, r := range rooms {
		grouped[r.HouseID] = append(grouped[r.HouseID], r)
	}

	out := make([]HouseSummary, 0, len(houses))
	for _, h := range houses {
		inHouse := grouped[h.ID]
		out = append(out, HouseSummary{
			HouseID: h.ID,
			Name:    h.Name,
			Rooms:   len(inHouse),
			Summary: Summarize(inHouse),
		})
	}
	return out
}

func amount(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
