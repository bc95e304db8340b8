package handlers

import (
	"fmt"

	"outfitter/internal/middleware"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. Every route needs an identity; status changes
// are admin only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, required fiber.Handler) {
	orderRoutes := router.Group("/orders", required)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", middleware.RequireRole(models.RoleAdmin), h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves the caller's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	orders, err := h.service.ListOrders(c.UserContext(), identity.UserID)
	if err != nil {
		return fail(c, "list orders", identity.UserID, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	order, err := h.service.GetOrderByID(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return fail(c, "get order", identity.UserID, err)
	}
	return c.JSON(order)
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items []services.OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var req CreateOrderRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	createdOrder, err := h.service.CreateOrder(c.UserContext(), identity.UserID, req.Items)
	if err != nil {
		return fail(c, "create order", identity.UserID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// UpdateStatusRequest is the body of PATCH /orders/:id/status.
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	orderID := c.Params("id")
	var req UpdateStatusRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), orderID, req.Status)
	if err != nil {
		return fail(c, "update order status", identity.UserID, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, req.Status),
		"order":   order,
	})
}
