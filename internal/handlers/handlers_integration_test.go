package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"outfitter/internal/handlers"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
	"outfitter/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test_jwt_secret"

type testEnv struct {
	app    *fiber.App
	auth   *services.AuthService
	orders *repositories.MockOrderRepository
}

// setupApp builds the storefront over an in-memory SQLite catalog and in-memory document stores.
func setupApp(t *testing.T) testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to connect to in-memory database")
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// The analytics fan-out reads concurrently; one connection keeps shared-cache SQLite from
	// reporting locked tables.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	productRepo := repositories.NewGORMProductRepository(db, 5*time.Second)
	userRepo := repositories.NewGORMUserRepository(db, 5*time.Second)
	orderRepo := repositories.NewMockOrderRepository()

	productService := services.NewProductService(productRepo)
	authService := services.NewAuthService(userRepo, testSecret, time.Hour)
	cartService := services.NewCartService(repositories.NewMockCartRepository(), productService, nil)

	app := fiber.New(fiber.Config{Immutable: true, ErrorHandler: handlers.ErrorHandler})
	handlers.RegisterRoutes(app.Group("/api/v1"), handlers.Services{
		Auth:      authService,
		Products:  productService,
		Carts:     cartService,
		Wishlists: services.NewWishlistService(repositories.NewMockWishlistRepository(), productService, cartService, nil),
		Orders:    services.NewOrderService(orderRepo, productService, nil),
		Analytics: services.NewAnalyticsService(orderRepo, userRepo, time.UTC),
		Location:  time.UTC,
	})

	require.NoError(t, productService.SeedCatalog(context.Background(), []models.Product{
		{ID: "P1", Name: "Trail Tent", Description: "Two person tent", Price: 100, Stock: 10},
		{ID: "P2", Name: "Down Sleeping Bag", Price: 80, Stock: 10},
		{ID: "P3", Name: "Headlamp", Price: 25.5, Stock: 10},
	}))

	return testEnv{app: app, auth: authService, orders: orderRepo}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// call sends one request and decodes the JSON answer into out when out is not nil.
func call(t *testing.T, app *fiber.App, method, path, token string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status := call(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     "admin",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var loginResp map[string]string
	status = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	}, &loginResp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func adminToken(t *testing.T, auth *services.AuthService) string {
	t.Helper()
	token, err := auth.IssueToken(&models.User{ID: "admin-1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	return token
}

type errorResp struct {
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)
	token := registerAndLogin(t, env.app, "testuser")

	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, models.RoleCustomer, claims["role"], "self registration must not grant admin")
	assert.Contains(t, claims, "user_id")

	var dup errorResp
	status := call(t, env.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "testuser",
		"email":    "other@example.com",
		"password": "password123",
	}, &dup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Conflict", dup.Kind)

	var bad errorResp
	status = call(t, env.app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "wrong-password",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "InvalidCredential", bad.Kind)

	status = call(t, env.app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnonymousReadsAreZeroState(t *testing.T) {
	env := setupApp(t)

	for _, token := range []string{"", "not-a-jwt"} {
		var cart models.Cart
		assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/cart", token, nil, &cart))
		assert.NotNil(t, cart.Items)
		assert.Empty(t, cart.Items)
		assert.Equal(t, 0, cart.TotalItems)

		var count map[string]int
		assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/cart/count", token, nil, &count))
		assert.Equal(t, 0, count["count"])

		var view models.WishlistView
		assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/wishlist", token, nil, &view))
		assert.Empty(t, view.Items)

		var contains map[string]bool
		assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/wishlist/items/P1", token, nil, &contains))
		assert.False(t, contains["inWishlist"])
	}
}

func TestAnonymousMutationsFail(t *testing.T) {
	env := setupApp(t)

	var missing errorResp
	status := call(t, env.app, http.MethodPost, "/api/v1/cart/items", "", map[string]any{"productId": "P1", "quantity": 1}, &missing)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthenticated", missing.Kind)

	var invalid errorResp
	status = call(t, env.app, http.MethodPost, "/api/v1/wishlist/items", "not-a-jwt", map[string]string{"productId": "P1"}, &invalid)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "InvalidCredential", invalid.Kind)

	for _, route := range []struct{ method, path string }{
		{http.MethodPatch, "/api/v1/cart/items/P1"},
		{http.MethodDelete, "/api/v1/cart/items/P1"},
		{http.MethodDelete, "/api/v1/cart"},
		{http.MethodDelete, "/api/v1/wishlist/items/P1"},
		{http.MethodDelete, "/api/v1/wishlist"},
		{http.MethodPut, "/api/v1/wishlist/order"},
		{http.MethodPost, "/api/v1/wishlist/items/P1/move-to-cart"},
	} {
		assert.Equal(t, http.StatusUnauthorized, call(t, env.app, route.method, route.path, "", nil, nil), route.path)
	}
}

func TestCartEndToEnd(t *testing.T) {
	env := setupApp(t)
	token := registerAndLogin(t, env.app, "shopper")

	var cart models.Cart
	status := call(t, env.app, http.MethodPost, "/api/v1/cart/items", token, map[string]any{
		"productId": "P1", "productName": "Tent", "productPrice": 100, "quantity": 2,
	}, &cart)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "P1", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, 200.0, cart.TotalPrice)

	status = call(t, env.app, http.MethodPatch, "/api/v1/cart/items/P1", token, map[string]int{"quantity": 5}, &cart)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, 500.0, cart.TotalPrice)

	var count map[string]int
	call(t, env.app, http.MethodGet, "/api/v1/cart/count", token, nil, &count)
	assert.Equal(t, 5, count["count"])

	cart = models.Cart{}
	status = call(t, env.app, http.MethodDelete, "/api/v1/cart/items/P1", token, nil, &cart)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, 0.0, cart.TotalPrice)

	// Removing again is idempotent.
	assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodDelete, "/api/v1/cart/items/P1", token, nil, nil))
	assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodDelete, "/api/v1/cart", token, nil, nil))
}

func TestCartRejections(t *testing.T) {
	env := setupApp(t)
	token := registerAndLogin(t, env.app, "shopper")

	var notFound errorResp
	status := call(t, env.app, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"productId": "nope", "quantity": 1}, &notFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ProductNotFound", notFound.Kind)
	assert.False(t, notFound.Retryable)

	status = call(t, env.app, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"productId": "P1", "quantity": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, env.app, http.MethodPatch, "/api/v1/cart/items/P1", token, map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWishlistFlow(t *testing.T) {
	env := setupApp(t)
	token := registerAndLogin(t, env.app, "dreamer")

	for _, id := range []string{"P1", "P2"} {
		require.Equal(t, http.StatusOK, call(t, env.app, http.MethodPost, "/api/v1/wishlist/items", token, map[string]string{"productId": id}, nil))
	}

	var dup errorResp
	status := call(t, env.app, http.MethodPost, "/api/v1/wishlist/items", token, map[string]string{"productId": "P1"}, &dup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "AlreadyInWishlist", dup.Kind)

	var invalid errorResp
	status = call(t, env.app, http.MethodPut, "/api/v1/wishlist/order", token, map[string][]string{"productIds": {"P1"}}, &invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "InvalidReorder", invalid.Kind)

	var w models.Wishlist
	status = call(t, env.app, http.MethodPut, "/api/v1/wishlist/order", token, map[string][]string{"productIds": {"P2", "P1"}}, &w)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "P2", w.Items[0].ProductID)

	var view models.WishlistView
	call(t, env.app, http.MethodGet, "/api/v1/wishlist", token, nil, &view)
	require.Len(t, view.Items, 2)
	require.NotNil(t, view.Items[0].Product)
	assert.Equal(t, "Down Sleeping Bag", view.Items[0].Product.Name)

	var move struct {
		Status string      `json:"status"`
		Cart   models.Cart `json:"cart"`
		Error  *errorResp  `json:"error"`
	}
	status = call(t, env.app, http.MethodPost, "/api/v1/wishlist/items/P2/move-to-cart", token, nil, &move)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", move.Status)
	assert.Nil(t, move.Error)
	assert.Equal(t, 1, move.Cart.TotalItems)
	assert.Equal(t, 80.0, move.Cart.TotalPrice)

	var contains map[string]bool
	call(t, env.app, http.MethodGet, "/api/v1/wishlist/items/P2", token, nil, &contains)
	assert.False(t, contains["inWishlist"])

	var gone errorResp
	status = call(t, env.app, http.MethodPost, "/api/v1/wishlist/items/nope/move-to-cart", token, nil, &gone)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ProductNotFound", gone.Kind)
}

func TestProductEndpoints(t *testing.T) {
	env := setupApp(t)

	var products []models.Product
	require.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/products", "", nil, &products))
	assert.Len(t, products, 3)

	var product models.Product
	require.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/products/P3", "", nil, &product))
	assert.Equal(t, "Headlamp", product.Name)
	assert.Equal(t, http.StatusNotFound, call(t, env.app, http.MethodGet, "/api/v1/products/nope", "", nil, nil))

	newProduct := map[string]any{"name": "Camp Stove", "description": "Single burner", "price": 59.0, "stock": 20}
	assert.Equal(t, http.StatusUnauthorized, call(t, env.app, http.MethodPost, "/api/v1/products", "", newProduct, nil))
	customer := registerAndLogin(t, env.app, "customer")
	assert.Equal(t, http.StatusForbidden, call(t, env.app, http.MethodPost, "/api/v1/products", customer, newProduct, nil))

	var created models.Product
	require.Equal(t, http.StatusCreated, call(t, env.app, http.MethodPost, "/api/v1/products", adminToken(t, env.auth), newProduct, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Camp Stove", created.Name)
}

func TestOrdersAndAnalytics(t *testing.T) {
	env := setupApp(t)
	customer := registerAndLogin(t, env.app, "buyer")
	admin := adminToken(t, env.auth)

	var order models.Order
	status := call(t, env.app, http.MethodPost, "/api/v1/orders", customer, map[string]any{
		"items": []map[string]any{{"productId": "P1", "quantity": 1}, {"productId": "P3", "quantity": 2}},
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 151.0, order.TotalAmount)

	assert.Equal(t, http.StatusBadRequest, call(t, env.app, http.MethodPost, "/api/v1/orders", customer, map[string]any{"items": []any{}}, nil))
	assert.Equal(t, http.StatusForbidden, call(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", customer, map[string]string{"status": "completed"}, nil))
	require.Equal(t, http.StatusOK, call(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", admin, map[string]string{"status": "completed"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, env.app, http.MethodPatch, "/api/v1/orders/"+order.ID+"/status", admin, map[string]string{"status": "shipped"}, nil))

	var mine []models.Order
	require.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/orders", customer, nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, models.OrderCompleted, mine[0].Status)

	other := registerAndLogin(t, env.app, "stranger")
	assert.Equal(t, http.StatusNotFound, call(t, env.app, http.MethodGet, "/api/v1/orders/"+order.ID, other, nil, nil))
	assert.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/orders/"+order.ID, admin, nil, nil))

	// Analytics is admin only and never silently empties.
	assert.Equal(t, http.StatusUnauthorized, call(t, env.app, http.MethodGet, "/api/v1/admin/analytics/overview", "", nil, nil))
	var forbidden errorResp
	assert.Equal(t, http.StatusForbidden, call(t, env.app, http.MethodGet, "/api/v1/admin/analytics/overview", customer, nil, &forbidden))
	assert.Equal(t, "Forbidden", forbidden.Kind)

	var overview services.DashboardOverview
	require.Equal(t, http.StatusOK, call(t, env.app, http.MethodGet, "/api/v1/admin/analytics/overview", admin, nil, &overview))
	assert.Equal(t, 1, overview.OrderStats.Today)
	assert.Equal(t, 151.0, overview.RevenueStats.Today)
	assert.Equal(t, 2, overview.CustomerStats.TotalCustomers)
	require.Len(t, overview.DailyRevenue, 7)
	assert.Equal(t, 151.0, overview.DailyRevenue[6].Revenue)
	require.Len(t, overview.RecentOrders, 1)
	assert.Equal(t, 2, overview.RecentOrders[0].ItemCount)

	today := time.Now().UTC().Format("2006-01-02")
	var detailed services.DetailedAnalytics
	status = call(t, env.app, http.MethodGet, "/api/v1/admin/analytics?startDate="+today+"&endDate="+today+"&period=day", admin, nil, &detailed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DAY", detailed.Period)
	assert.Equal(t, 1, detailed.TotalOrders)
	assert.Equal(t, 151.0, detailed.AverageOrderValue)
	require.Len(t, detailed.TopProducts, 2)
	assert.Equal(t, "P1", detailed.TopProducts[0].ProductID)
	require.Len(t, detailed.DailyBreakdown, 1)
	assert.Equal(t, today, detailed.DailyBreakdown[0].Date)

	var invalid errorResp
	assert.Equal(t, http.StatusBadRequest, call(t, env.app, http.MethodGet, "/api/v1/admin/analytics?startDate=yesterday&endDate="+today, admin, nil, &invalid))
	assert.Equal(t, "InvalidInput", invalid.Kind)
	assert.Equal(t, http.StatusBadRequest, call(t, env.app, http.MethodGet, "/api/v1/admin/analytics?endDate="+today, admin, nil, nil))
}

func TestAnalyticsStoreDown(t *testing.T) {
	env := setupApp(t)
	env.orders.Err = fmt.Errorf("connection refused")

	var failed errorResp
	status := call(t, env.app, http.MethodGet, "/api/v1/admin/analytics/overview", adminToken(t, env.auth), nil, &failed)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "AggregationFailed", failed.Kind)
	assert.False(t, failed.Retryable)
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	env := setupApp(t)

	var notFound errorResp
	assert.Equal(t, http.StatusNotFound, call(t, env.app, http.MethodGet, "/api/v1/nothing-here", "", nil, &notFound))
	assert.Equal(t, "NotFound", notFound.Kind)
}
