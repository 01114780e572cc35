package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/dto"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DataService exports, imports and clears a user's whole data set
type DataService struct {
	houses repository.HouseRepository
	rooms  repository.RoomRepository
	items  repository.ShoppingItemRepository
	data   repository.DataRepository
	log    *zap.Logger
	now    func() time.Time
}

// NewDataService creates a new DataService
func NewDataService(houses repository.HouseRepository, rooms repository.RoomRepository, items repository.ShoppingItemRepository, data repository.DataRepository, log *zap.Logger) *DataService {
	return &DataService{
		houses: houses,
		rooms:  rooms,
		items:  items,
		data:   data,
		log:    logging.OrNop(log),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Export collects the user's houses, rooms and shopping items into a backup document
func (s *DataService) Export(ctx context.Context, userID string) (*dto.ExportDocument, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	var (
		houses []models.House
		rooms  []models.Room
		items  []models.ShoppingItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		houses, err = s.houses.ListByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		rooms, err = s.rooms.ListByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.items.ListByUserID(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("failed to export data", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to export data: %w", err)
	}

	if houses == nil {
		houses = []models.House{}
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	if items == nil {
		items = []models.ShoppingItem{}
	}

	return &dto.ExportDocument{
		Version:   constants.ExportVersion,
		Timestamp: s.now(),
		UserID:    userID,
		Data: dto.ExportData{
			Houses:        houses,
			Rooms:         rooms,
			ShoppingItems: items,
		},
	}, nil
}

// Import replaces the user's data with the contents of a backup document.
// The document is fully validated before anything is written; a version 2
// document leaves the shopping list untouched.
func (s *DataService) Import(ctx context.Context, userID string, payload []byte) dto.ImportResult {
	if userID == "" {
		return dto.Failed("Not signed in")
	}

	doc, msg := parseImport(payload)
	if msg != "" {
		s.log.Warn("rejected import", zap.String("user_id", userID), zap.String("reason", msg))
		return dto.Failed(msg)
	}

	now := s.now()
	houses, rooms := doc.assign(userID, now)

	items := doc.items(userID, now)
	if !doc.hasItems {
		existing, err := s.items.ListByUserID(ctx, userID)
		if err != nil {
			s.log.Error("failed to read shopping list for import", zap.String("user_id", userID), zap.Error(err))
			return dto.Failed("Failed to import data: " + err.Error())
		}
		items = existing
	}

	if err := s.data.ReplaceUserData(ctx, userID, houses, rooms, items); err != nil {
		s.log.Error("failed to import data", zap.String("user_id", userID), zap.Error(err))
		return dto.Failed("Failed to import data: " + err.Error())
	}

	s.log.Info("imported data",
		zap.String("user_id", userID),
		zap.Int("houses", len(houses)),
		zap.Int("rooms", len(rooms)),
		zap.Int("shopping_items", len(doc.shopping)),
	)

	return dto.ImportResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully imported %d houses, %d rooms and %d shopping items", len(houses), len(rooms), len(doc.shopping)),
		Houses:        len(houses),
		Rooms:         len(rooms),
		ShoppingItems: len(doc.shopping),
	}
}

// ClearAll deletes every house, room and shopping item of the user
func (s *DataService) ClearAll(ctx context.Context, userID string) dto.ImportResult {
	if userID == "" {
		return dto.Failed("Not signed in")
	}

	removed, err := s.data.DeleteUserData(ctx, userID)
	if err != nil {
		s.log.Error("failed to clear data", zap.String("user_id", userID), zap.Error(err))
		return dto.Failed("Failed to clear data")
	}

	return dto.ImportResult{
		Success: true,
		Message: fmt.Sprintf("Successfully deleted %d houses and all associated rooms", removed),
		Houses:  int(removed),
	}
}

// Import document parsing. Every field is decoded into a pointer or raw
// value so that a missing field can be told apart from a zero value.

type importHouse struct {
	ID        *string    `json:"id"`
	Name      *string    `json:"name"`
	Address   *string    `json:"address"`
	Photo     *string    `json:"photo"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type importTask struct {
	ID        *string         `json:"id"`
	Title     *string         `json:"title"`
	Done      *bool           `json:"done"`
	Note      *string         `json:"note"`
	Cost      json.RawMessage `json:"cost"`
	CreatedAt *time.Time      `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt"`
}

type importRoom struct {
	ID        *string         `json:"id"`
	HouseID   *string         `json:"houseId"`
	Name      *string         `json:"name"`
	Budget    *float64        `json:"budget"`
	Deadline  *string         `json:"deadline"`
	Thumbnail *string         `json:"thumbnail"`
	Photos    []string        `json:"photos"`
	Tasks     json.RawMessage `json:"tasks"`
	CreatedAt *time.Time      `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt"`

	tasks []importTask
}

type importItem struct {
	ID        *string    `json:"id"`
	Title     *string    `json:"title"`
	Completed *bool      `json:"completed"`
	Quantity  *int       `json:"quantity"`
	Note      *string    `json:"note"`
	Unit      *string    `json:"unit"`
	Category  *string    `json:"category"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type importDocument struct {
	version  int
	houses   []importHouse
	rooms    []importRoom
	shopping []importItem
	hasItems bool
}

// parseImport validates payload and returns a failure message when it is not
// an importable document.
func parseImport(payload []byte) (*importDocument, string) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(payload, &root); err != nil || root == nil {
		return nil, "Invalid data format"
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(root["data"], &data); err != nil || data == nil {
		return nil, "Invalid data format"
	}
	if !isArray(data["houses"]) || !isArray(data["rooms"]) {
		return nil, "Invalid data format"
	}

	var version float64
	if err := json.Unmarshal(root["version"], &version); err != nil || version != math.Trunc(version) {
		return nil, "Invalid data format"
	}
	if version < constants.MinImportVersion || version > constants.ExportVersion {
		return nil, "Incompatible data version"
	}

	doc := &importDocument{version: int(version)}

	var rawHouses []json.RawMessage
	if err := json.Unmarshal(data["houses"], &rawHouses); err != nil {
		return nil, "Invalid data format"
	}
	seen := make(map[string]struct{}, len(rawHouses))
	for _, raw := range rawHouses {
		var h importHouse
		if err := json.Unmarshal(raw, &h); err != nil || !present(h.ID) || !present(h.Name) {
			return nil, "Invalid house data found"
		}
		if _, dup := seen[*h.ID]; dup {
			return nil, "Duplicate house id found"
		}
		seen[*h.ID] = struct{}{}
		doc.houses = append(doc.houses, h)
	}

	var rawRooms []json.RawMessage
	if err := json.Unmarshal(data["rooms"], &rawRooms); err != nil {
		return nil, "Invalid data format"
	}
	for _, raw := range rawRooms {
		var r importRoom
		if err := json.Unmarshal(raw, &r); err != nil ||
			!present(r.ID) || !present(r.Name) || !present(r.HouseID) ||
			r.Budget == nil || ValidateBudget(*r.Budget) != nil || !isArray(r.Tasks) {
			return nil, "Invalid room data found"
		}
		if err := json.Unmarshal(r.Tasks, &r.tasks); err != nil {
			return nil, "Invalid room data found"
		}
		for _, t := range r.tasks {
			if t.Title == nil {
				return nil, "Invalid room data found"
			}
		}
		if _, ok := seen[*r.HouseID]; !ok {
			return nil, "Room references non-existent house"
		}
		doc.rooms = append(doc.rooms, r)
	}

	if raw, ok := data["shoppingItems"]; ok && !isNull(raw) {
		if !isArray(raw) {
			return nil, "Invalid data format"
		}
		var rawItems []json.RawMessage
		if err := json.Unmarshal(raw, &rawItems); err != nil {
			return nil, "Invalid data format"
		}
		for _, rawItem := range rawItems {
			var item importItem
			if err := json.Unmarshal(rawItem, &item); err != nil ||
				!present(item.ID) || !present(item.Title) || item.Completed == nil {
				return nil, "Invalid shopping item data found"
			}
			doc.shopping = append(doc.shopping, item)
		}
		doc.hasItems = true
	}
	if doc.version >= 3 {
		doc.hasItems = true
	}

	return doc, ""
}

// assign builds fresh models owned by userID. Houses and rooms get new ids;
// room houseId references follow their house.
func (d *importDocument) assign(userID string, now time.Time) ([]models.House, []models.Room) {
	houseIDs := make(map[string]string, len(d.houses))

	houses := make([]models.House, 0, len(d.houses))
	for _, h := range d.houses {
		id := uuid.NewString()
		houseIDs[*h.ID] = id
		created, updated := stamps(h.CreatedAt, h.UpdatedAt, now)
		houses = append(houses, models.House{
			ID:        id,
			UserID:    userID,
			Name:      *h.Name,
			Address:   deref(h.Address),
			Photo:     deref(h.Photo),
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}

	rooms := make([]models.Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		tasks := make([]models.Task, 0, len(r.tasks))
		for _, t := range r.tasks {
			taskID := deref(t.ID)
			if taskID == "" {
				taskID = uuid.NewString()
			}
			created, updated := stamps(t.CreatedAt, t.UpdatedAt, now)
			tasks = append(tasks, models.Task{
				ID:        taskID,
				Title:     *t.Title,
				Done:      t.Done != nil && *t.Done,
				Note:      deref(t.Note),
				Cost:      parseCost(t.Cost),
				CreatedAt: created,
				UpdatedAt: updated,
			})
		}

		created, updated := stamps(r.CreatedAt, r.UpdatedAt, now)
		rooms = append(rooms, models.Room{
			ID:        uuid.NewString(),
			HouseID:   houseIDs[*r.HouseID],
			Name:      *r.Name,
			Budget:    *r.Budget,
			Deadline:  deref(r.Deadline),
			Thumbnail: deref(r.Thumbnail),
			Photos:    FilterPhotos(r.Photos),
			Tasks:     tasks,
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}

	return houses, rooms
}

func (d *importDocument) items(userID string, now time.Time) []models.ShoppingItem {
	items := make([]models.ShoppingItem, 0, len(d.shopping))
	for _, it := range d.shopping {
		quantity := 1
		if it.Quantity != nil && *it.Quantity > 0 {
			quantity = *it.Quantity
		}
		created, updated := stamps(it.CreatedAt, it.UpdatedAt, now)
		items = append(items, models.ShoppingItem{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     *it.Title,
			Completed: *it.Completed,
			Quantity:  quantity,
			Note:      deref(it.Note),
			Unit:      deref(it.Unit),
			Category:  deref(it.Category),
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}
	return items
}

// parseCost keeps numeric costs and drops anything else.
func parseCost(raw json.RawMessage) *float64 {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var cost float64
	if err := json.Unmarshal(raw, &cost); err != nil {
		return nil
	}
	return &cost
}

func stamps(created, updated *time.Time, now time.Time) (time.Time, time.Time) {
	c := now
	if created != nil && !created.IsZero() {
		c = *created
	}
	u := c
	if updated != nil && !updated.IsZero() {
		u = *updated
	}
	return c, u
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
