package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopcore/shopcore/internal/cart"
	"github.com/shopcore/shopcore/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog map[int64]models.CatalogEntry

func (c staticCatalog) Lookup(_ context.Context, productIDs []int64) (map[int64]models.CatalogEntry, error) {
	out := make(map[int64]models.CatalogEntry)
	for _, id := range productIDs {
		if entry, ok := c[id]; ok {
			out[id] = entry
		}
	}
	return out, nil
}

func setupCartRouter(t *testing.T) *gin.Engine {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	catalog := staticCatalog{
		1: {ID: 1, Name: "Widget", Price: decimal.RequireFromString("10.00")},
	}

	gin.SetMode(gin.TestMode)
	h := NewCartHandler(cart.NewStore(client, catalog, time.Hour))

	router := gin.New()
	router.GET("/cart/:user", h.GetCart)
	router.GET("/cart/:user/ttl", h.GetCartTTL)
	router.POST("/cart/:user/items", h.AddItem)
	router.PUT("/cart/:user/items/:id", h.SetQuantity)
	router.DELETE("/cart/:user/items/:id", h.RemoveItem)
	router.DELETE("/cart/:user", h.ClearCart)
	return router
}

func TestCart_AddThenGet(t *testing.T) {
	router := setupCartRouter(t)

	w := doRequest(router, http.MethodPost, "/cart/u1/items", `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/cart/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":"20.00"`)
	assert.Contains(t, w.Body.String(), `"item_count":1`)
}

func TestCart_AddRejectsNonPositiveQuantity(t *testing.T) {
	router := setupCartRouter(t)

	w := doRequest(router, http.MethodPost, "/cart/u1/items", `{"product_id":1,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_TTLAbsentCart(t *testing.T) {
	router := setupCartRouter(t)

	w := doRequest(router, http.MethodGet, "/cart/u1/ttl", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	router := setupCartRouter(t)

	w := doRequest(router, http.MethodPost, "/cart/u1/items", `{"product_id":1,"quantity":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodPut, "/cart/u1/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/cart/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_count":0`)
}

func TestCart_Clear(t *testing.T) {
	router := setupCartRouter(t)

	w := doRequest(router, http.MethodPost, "/cart/u1/items", `{"product_id":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/cart/u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/cart/u1/ttl", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
