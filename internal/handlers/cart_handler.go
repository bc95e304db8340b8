package handlers

import (
	"outfitter/internal/middleware"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes. Reads go through optional, mutations through required.
func (h *CartHandler) RegisterRoutes(router fiber.Router, required, optional fiber.Handler) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", optional, h.HandleGetCart)
	cartRoutes.Get("/count", optional, h.HandleItemCount)
	cartRoutes.Post("/items", required, h.HandleAddItem)
	cartRoutes.Patch("/items/:productId", required, h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:productId", required, h.HandleRemoveItem)
	cartRoutes.Delete("/", required, h.HandleClear)
}

// HandleGetCart returns the cart, or the empty cart shape for anonymous callers.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(models.NewCart(""))
	}
	cart, err := h.service.GetCart(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "get cart", identity.UserID, err)
	}
	return c.JSON(cart)
}

// HandleItemCount returns {"count": n}; anonymous callers get 0.
func (h *CartHandler) HandleItemCount(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(fiber.Map{"count": 0})
	}
	count, err := h.service.ItemCount(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "cart item count", identity.UserID, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var req services.AddToCartInput
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.service.AddItem(c.UserContext(), identity.UserID, req)
	if err != nil {
		return fail(c, "add to cart", identity.UserID, err)
	}
	return c.JSON(cart)
}

// UpdateQuantityRequest is the body of PATCH /cart/items/:productId. A quantity <= 0 removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var req UpdateQuantityRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.service.UpdateQuantity(c.UserContext(), identity.UserID, c.Params("productId"), *req.Quantity)
	if err != nil {
		return fail(c, "update cart quantity", identity.UserID, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	cart, err := h.service.RemoveItem(c.UserContext(), identity.UserID, c.Params("productId"))
	if err != nil {
		return fail(c, "remove from cart", identity.UserID, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	cart, err := h.service.Clear(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "clear cart", identity.UserID, err)
	}
	return c.JSON(cart)
}
