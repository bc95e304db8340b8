package handlers

import (
	"time"

	"outfitter/internal/middleware"
	"outfitter/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Services are the dependencies of the HTTP surface.
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Carts     *services.CartService
	Wishlists *services.WishlistService
	Orders    *services.OrderService
	Analytics *services.AnalyticsService
	// Location reads date-only analytics query values.
	Location *time.Location
}

// RegisterRoutes mounts every storefront route on router, normally the /api/v1 group.
func RegisterRoutes(router fiber.Router, s Services) {
	required := middleware.AuthRequired(s.Auth)
	optional := middleware.OptionalAuth(s.Auth)

	NewAuthHandler(s.Auth).RegisterRoutes(router)
	NewProductHandler(s.Products).RegisterRoutes(router, required)
	NewCartHandler(s.Carts).RegisterRoutes(router, required, optional)
	NewWishlistHandler(s.Wishlists).RegisterRoutes(router, required, optional)
	NewOrderHandler(s.Orders).RegisterRoutes(router, required)
	NewAnalyticsHandler(s.Analytics, s.Location).RegisterRoutes(router, required)
}
