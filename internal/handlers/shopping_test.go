package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/oppuss/internal/dto"
	"github.com/yukikurage/oppuss/internal/models"
)

func TestShoppingHandler_ListSplitsAndClears(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	var ids []string
	for _, title := range []string{"Screws", "Primer", "Tape"} {
		c, w := newAuthContext(t, http.MethodPost, "/api/shopping", map[string]any{"title": title}, "alice")
		env.shopping.CreateItem(c)
		require.Equal(t, http.StatusCreated, w.Code)
		item := decode[models.ShoppingItem](t, w)
		assert.Equal(t, 1, item.Quantity)
		ids = append(ids, item.ID)
	}

	c, w := newAuthContext(t, http.MethodPost, "/api/shopping/"+ids[1]+"/toggle", nil, "alice", idParam(ids[1]))
	env.shopping.ToggleItem(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.ShoppingItem](t, w).Completed)

	c, w = newAuthContext(t, http.MethodGet, "/api/shopping", nil, "alice")
	env.shopping.ListItems(c)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.ShoppingListResponse](t, w)
	assert.Len(t, list.Active, 2)
	require.Len(t, list.Completed, 1)
	assert.Equal(t, "Primer", list.Completed[0].Title)

	c, w = newAuthContext(t, http.MethodDelete, "/api/shopping/completed", nil, "alice")
	env.shopping.ClearCompleted(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
}

func TestShoppingHandler_UpdateValidation(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	c, w := newAuthContext(t, http.MethodPost, "/api/shopping", map[string]any{"title": "Nails", "quantity": 3, "unit": "box"}, "alice")
	env.shopping.CreateItem(c)
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[models.ShoppingItem](t, w)

	c, w = newAuthContext(t, http.MethodPatch, "/api/shopping/"+item.ID, map[string]any{"quantity": 0}, "alice", idParam(item.ID))
	env.shopping.UpdateItem(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newAuthContext(t, http.MethodPatch, "/api/shopping/"+item.ID, map[string]any{"title": "Nails"}, "bob", idParam(item.ID))
	env.shopping.UpdateItem(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newAuthContext(t, http.MethodDelete, "/api/shopping/"+item.ID, nil, "alice", gin.Param{Key: "id", Value: item.ID})
	env.shopping.DeleteItem(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
