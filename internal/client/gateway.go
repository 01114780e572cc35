package client

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/yukikurage/oppuss/internal/dto"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

// The gateway methods take a userID to match the store interfaces. The
// server identifies the user by the session cookie, so it is not sent.

func (c *Client) ListHouses(ctx context.Context, _ string) ([]models.House, error) {
	var houses []models.House
	if err := c.doJSON(ctx, http.MethodGet, "/api/houses", nil, &houses); err != nil {
		return nil, err
	}
	return houses, nil
}

func (c *Client) CreateHouse(ctx context.Context, _ string, input services.CreateHouseInput) (*models.House, error) {
	var house models.House
	if err := c.doJSON(ctx, http.MethodPost, "/api/houses", input, &house); err != nil {
		return nil, err
	}
	return &house, nil
}

func (c *Client) UpdateHouse(ctx context.Context, _ string, id string, input services.UpdateHouseInput) (*models.House, error) {
	var house models.House
	if err := c.doJSON(ctx, http.MethodPatch, "/api/houses/"+url.PathEscape(id), input, &house); err != nil {
		return nil, err
	}
	return &house, nil
}

func (c *Client) DeleteHouse(ctx context.Context, _ string, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/houses/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListRooms(ctx context.Context, _ string) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.doJSON(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, _ string, input services.CreateRoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.doJSON(ctx, http.MethodPost, "/api/rooms", input, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, _ string, id string, input services.UpdateRoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.doJSON(ctx, http.MethodPatch, "/api/rooms/"+url.PathEscape(id), input, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ReplaceTasks writes the room's whole task collection.
func (c *Client) ReplaceTasks(ctx context.Context, _ string, id string, tasks []models.Task) (*models.Room, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	body := struct {
		Tasks []models.Task `json:"tasks"`
	}{Tasks: tasks}

	var room models.Room
	if err := c.doJSON(ctx, http.MethodPut, "/api/rooms/"+url.PathEscape(id)+"/tasks", body, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, _ string, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(id), nil, nil)
}

// ListItems returns the whole shopping list, newest first. The server splits
// it into active and completed halves; they are merged back here.
func (c *Client) ListItems(ctx context.Context, _ string) ([]models.ShoppingItem, error) {
	var list dto.ShoppingListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/shopping", nil, &list); err != nil {
		return nil, err
	}

	items := append(list.Active, list.Completed...)
	slices.SortStableFunc(items, func(a, b models.ShoppingItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

func (c *Client) CreateItem(ctx context.Context, _ string, input services.CreateShoppingItemInput) (*models.ShoppingItem, error) {
	var item models.ShoppingItem
	if err := c.doJSON(ctx, http.MethodPost, "/api/shopping", input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, _ string, id string, input services.UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	var item models.ShoppingItem
	if err := c.doJSON(ctx, http.MethodPatch, "/api/shopping/"+url.PathEscape(id), input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, _ string, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/shopping/"+url.PathEscape(id), nil, nil)
}

// ClearCompleted deletes every completed item and returns how many went.
func (c *Client) ClearCompleted(ctx context.Context, _ string) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/shopping/completed", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
