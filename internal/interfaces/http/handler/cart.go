package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/printshop/personalizer/internal/application/cart"
	"github.com/printshop/personalizer/internal/interfaces/http/middleware"
)

// CartHandler handles the shopper's cart endpoints
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// GetCart godoc
// @Summary      Get the active cart
// @Description  Return the session cart with its lines and totals
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cartapp.CartResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	resp, err := h.cartService.GetCart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveLine godoc
// @Summary      Remove a cart line
// @Description  Remove a line and its personalizations from the session cart
// @Tags         cart
// @Produce      json
// @Param        id path string true "Cart line ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /api/v1/cart/lines/{id} [delete]
func (h *CartHandler) RemoveLine(c *gin.Context) {
	lineID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.cartService.RemoveLine(c.Request.Context(), middleware.GetSessionID(c), lineID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
