package handlers

import (
	"log"

	"outfitter/internal/middleware"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles HTTP requests for the caller's wishlist.
type WishlistHandler struct {
	service  *services.WishlistService
	validate *validator.Validate
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(service *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the wishlist routes. Reads go through optional, mutations through required.
func (h *WishlistHandler) RegisterRoutes(router fiber.Router, required, optional fiber.Handler) {
	wishlistRoutes := router.Group("/wishlist")
	wishlistRoutes.Get("/", optional, h.HandleGetWishlist)
	wishlistRoutes.Get("/items/:productId", optional, h.HandleContains)
	wishlistRoutes.Post("/items", required, h.HandleAddItem)
	wishlistRoutes.Post("/items/:productId/move-to-cart", required, h.HandleMoveToCart)
	wishlistRoutes.Delete("/items/:productId", required, h.HandleRemoveItem)
	wishlistRoutes.Delete("/", required, h.HandleClear)
	wishlistRoutes.Put("/order", required, h.HandleReorder)
}

func (h *WishlistHandler) HandleGetWishlist(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(models.WishlistView{Items: []models.WishlistEntry{}})
	}
	view, err := h.service.GetWishlist(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "get wishlist", identity.UserID, err)
	}
	return c.JSON(view)
}

// HandleContains returns {"inWishlist": bool}; anonymous callers get false.
func (h *WishlistHandler) HandleContains(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(fiber.Map{"inWishlist": false})
	}
	in, err := h.service.IsProductInWishlist(c.UserContext(), identity.UserID, c.Params("productId"))
	if err != nil {
		return fail(c, "wishlist contains", identity.UserID, err)
	}
	return c.JSON(fiber.Map{"inWishlist": in})
}

// AddToWishlistRequest is the body of POST /wishlist/items.
type AddToWishlistRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func (h *WishlistHandler) HandleAddItem(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var req AddToWishlistRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	w, err := h.service.AddItem(c.UserContext(), identity.UserID, req.ProductID)
	if err != nil {
		return fail(c, "add to wishlist", identity.UserID, err)
	}
	return c.JSON(w)
}

func (h *WishlistHandler) HandleRemoveItem(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	w, err := h.service.RemoveItem(c.UserContext(), identity.UserID, c.Params("productId"))
	if err != nil {
		return fail(c, "remove from wishlist", identity.UserID, err)
	}
	return c.JSON(w)
}

func (h *WishlistHandler) HandleClear(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	w, err := h.service.Clear(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "clear wishlist", identity.UserID, err)
	}
	return c.JSON(w)
}

// ReorderRequest is the body of PUT /wishlist/order.
type ReorderRequest struct {
	ProductIDs []string `json:"productIds"`
}

func (h *WishlistHandler) HandleReorder(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var req ReorderRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	w, err := h.service.Reorder(c.UserContext(), identity.UserID, req.ProductIDs)
	if err != nil {
		return fail(c, "reorder wishlist", identity.UserID, err)
	}
	return c.JSON(w)
}

// HandleMoveToCart answers {status, cart} and adds the error body when only the cart add landed.
func (h *WishlistHandler) HandleMoveToCart(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	res, err := h.service.MoveToCart(c.UserContext(), identity.UserID, c.Params("productId"))
	if err != nil {
		return fail(c, "move wishlist item to cart", identity.UserID, err)
	}
	body := fiber.Map{"status": res.Status, "cart": res.Cart}
	if res.Err != nil {
		log.Printf("move to cart for user %q left %s on the wishlist: %v", identity.UserID, c.Params("productId"), res.Err)
		body["error"] = errorBody(res.Err)
	}
	return c.JSON(body)
}
