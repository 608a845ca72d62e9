package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/shopcore/internal/cart"
)

type CartHandler struct {
	carts *cart.Store
}

func NewCartHandler(carts *cart.Store) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart returns the priced snapshot of a user's cart
func (h *CartHandler) GetCart(c *gin.Context) {
	snap, err := h.carts.Snapshot(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// GetCartTTL returns the remaining cart lifetime in seconds
func (h *CartHandler) GetCartTTL(c *gin.Context) {
	ttl, ok, err := h.carts.TimeToLive(c.Request.Context(), c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ttl_seconds": int(ttl.Seconds())})
}

// AddItem adds quantity of a product to the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.carts.Add(c.Request.Context(), c.Param("user"), req.ProductID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item added"})
}

// SetQuantity overwrites a product's quantity; zero or less removes it
func (h *CartHandler) SetQuantity(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.carts.SetQuantity(c.Request.Context(), c.Param("user"), productID, req.Quantity); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quantity updated"})
}

// RemoveItem deletes a product from the cart
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	if err := h.carts.Remove(c.Request.Context(), c.Param("user"), productID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

// ClearCart deletes the whole cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), c.Param("user")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
