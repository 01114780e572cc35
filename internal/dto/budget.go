package dto

import "github.com/yukikurage/oppuss/internal/aggregate"

// BudgetDTO represents budget figures in API responses
type BudgetDTO struct {
	Budget    float64 `json:"budget"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
}

// HouseBudgetDTO is one house's share of the budget overview
type HouseBudgetDTO struct {
	HouseID string `json:"houseId"`
	Name    string `json:"name"`
	Rooms   int    `json:"rooms"`
	BudgetDTO
}

// BudgetOverviewResponse is the budget across all rooms plus a per-house breakdown
type BudgetOverviewResponse struct {
	Total  BudgetDTO        `json:"total"`
	Houses []HouseBudgetDTO `json:"houses"`
}

// ToBudgetDTO converts an aggregate summary to BudgetDTO
func ToBudgetDTO(s aggregate.Summary) BudgetDTO {
	return BudgetDTO{
		Budget:    s.Budget,
		Spent:     s.Spent,
		Remaining: s.Remaining,
	}
}

// ToBudgetOverviewResponse converts the total and per-house summaries
func ToBudgetOverviewResponse(total aggregate.Summary, houses []aggregate.HouseSummary) BudgetOverviewResponse {
	items := make([]HouseBudgetDTO, len(houses))
	for i, h := range houses {
		items[i] = HouseBudgetDTO{
			HouseID:   h.HouseID,
			Name:      h.Name,
			Rooms:     h.Rooms,
			BudgetDTO: ToBudgetDTO(h.Summary),
		}
	}

	return BudgetOverviewResponse{
		Total:  ToBudgetDTO(total),
		Houses: items,
	}
}
