package handlers

import (
	"outfitter/internal/middleware"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Reads are public; creating requires an admin.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, required fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", required, middleware.RequireRole(models.RoleAdmin), h.HandleCreateProduct)
}

// HandleGetProducts retrieves the whole catalog.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return fail(c, "list products", "", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.Lookup(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "get product", "", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	identity, _ := middleware.IdentityFrom(c)
	var product models.Product
	if ok, err := parseBody(c, h.validate, &product); !ok {
		return err
	}
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return fail(c, "create product", identity.UserID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}
