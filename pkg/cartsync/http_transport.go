package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/services"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// HTTPTransport talks to the storefront REST API with fiber's HTTP client.
type HTTPTransport struct {
	baseURL string
	token   string
	timeout time.Duration
}

// NewHTTPTransport creates a transport for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1", authenticating with the bearer token.
func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: defaultTimeout,
	}
}

// WithTimeout sets the per-request timeout used when ctx has no deadline.
func (t *HTTPTransport) WithTimeout(d time.Duration) *HTTPTransport {
	t.timeout = d
	return t
}

func (t *HTTPTransport) Cart(ctx context.Context) (*models.Cart, error) {
	return t.cart(ctx, fiber.MethodGet, "/cart", nil)
}

func (t *HTTPTransport) CartItemCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := t.do(ctx, fiber.MethodGet, "/cart/count", nil, &out)
	return out.Count, err
}

func (t *HTTPTransport) Wishlist(ctx context.Context) (*models.WishlistView, error) {
	var view models.WishlistView
	if err := t.do(ctx, fiber.MethodGet, "/wishlist", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (t *HTTPTransport) AddToCart(ctx context.Context, in services.AddToCartInput) (*models.Cart, error) {
	return t.cart(ctx, fiber.MethodPost, "/cart/items", in)
}

func (t *HTTPTransport) UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) (*models.Cart, error) {
	return t.cart(ctx, fiber.MethodPatch, "/cart/items/"+url.PathEscape(productID), fiber.Map{"quantity": quantity})
}

func (t *HTTPTransport) RemoveFromCart(ctx context.Context, productID string) (*models.Cart, error) {
	return t.cart(ctx, fiber.MethodDelete, "/cart/items/"+url.PathEscape(productID), nil)
}

func (t *HTTPTransport) ClearCart(ctx context.Context) (*models.Cart, error) {
	return t.cart(ctx, fiber.MethodDelete, "/cart", nil)
}

func (t *HTTPTransport) AddToWishlist(ctx context.Context, productID string) (*models.Wishlist, error) {
	return t.wishlist(ctx, fiber.MethodPost, "/wishlist/items", fiber.Map{"productId": productID})
}

func (t *HTTPTransport) RemoveFromWishlist(ctx context.Context, productID string) (*models.Wishlist, error) {
	return t.wishlist(ctx, fiber.MethodDelete, "/wishlist/items/"+url.PathEscape(productID), nil)
}

func (t *HTTPTransport) ClearWishlist(ctx context.Context) (*models.Wishlist, error) {
	return t.wishlist(ctx, fiber.MethodDelete, "/wishlist", nil)
}

func (t *HTTPTransport) ReorderWishlist(ctx context.Context, productIDs []string) (*models.Wishlist, error) {
	return t.wishlist(ctx, fiber.MethodPut, "/wishlist/order", fiber.Map{"productIds": productIDs})
}

func (t *HTTPTransport) MoveWishlistToCart(ctx context.Context, productID string) (*MoveOutcome, error) {
	var out struct {
		Status services.MoveStatus `json:"status"`
		Cart   *models.Cart        `json:"cart"`
		Error  *errorResponse      `json:"error"`
	}
	if err := t.do(ctx, fiber.MethodPost, "/wishlist/items/"+url.PathEscape(productID)+"/move-to-cart", nil, &out); err != nil {
		return nil, err
	}
	res := &MoveOutcome{Status: out.Status, Cart: out.Cart}
	if out.Error != nil {
		res.Err = out.Error.err()
	}
	return res, nil
}

func (t *HTTPTransport) cart(ctx context.Context, method, path string, body any) (*models.Cart, error) {
	var cart models.Cart
	if err := t.do(ctx, method, path, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (t *HTTPTransport) wishlist(ctx context.Context, method, path string, body any) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := t.do(ctx, method, path, body, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

type errorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func (e *errorResponse) err() error {
	kind, _ := apperr.ParseKind(e.Kind)
	return apperr.New(kind, e.Message)
}

// do sends one request and decodes a 2xx answer into out. Error answers become *apperr.Error
// with the server's kind; a request that gets no answer is a StoreTimeout.
func (t *HTTPTransport) do(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.StoreTimeout, "request cancelled", err)
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(t.baseURL + path)
	if t.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+t.token)
	}
	if body != nil {
		a.JSON(body)
	}
	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	a.Timeout(timeout)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return apperr.Wrap(apperr.Internal, "invalid request", err)
	}
	// Bytes releases the agent.
	code, raw, errs := a.Bytes()
	if len(errs) > 0 {
		return apperr.Wrap(apperr.StoreTimeout, "storefront did not respond", errors.Join(errs...))
	}

	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		var e errorResponse
		if err := json.Unmarshal(raw, &e); err != nil || e.Kind == "" {
			return apperr.Newf(apperr.Internal, "unexpected status %d from %s %s", code, method, path)
		}
		return e.err()
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.Internal, fmt.Sprintf("decode %s %s", method, path), err)
	}
	return nil
}
