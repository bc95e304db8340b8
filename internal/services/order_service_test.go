package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
	"outfitter/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockOrderRepository()
	pub := new(MockPublisher)
	pub.On("Publish", services.EventsExchange, models.EventOrderCreated, mock.MatchedBy(func(body []byte) bool {
		var evt models.MutationEvent
		return json.Unmarshal(body, &evt) == nil && evt.UserID == "u1" && evt.ItemCount == 2
	})).Return(nil).Once()
	svc := services.NewOrderService(repo, testCatalog(), pub)

	order, err := svc.CreateOrder(ctx, "u1", []services.OrderItemRequest{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P3", Quantity: 3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Tent", order.Items[0].ProductName)
	assert.Equal(t, 200.0, order.Items[0].Total)
	assert.Equal(t, 76.5, order.Items[1].Total)
	assert.Equal(t, 276.5, order.TotalAmount)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, stored.TotalAmount)
	pub.AssertExpectations(t)
}

func TestOrderService_CreateOrderRejects(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockOrderRepository()
	svc := services.NewOrderService(repo, testCatalog(), nil)

	tests := []struct {
		name  string
		items []services.OrderItemRequest
		kind  apperr.Kind
	}{
		{"no items", nil, apperr.InvalidInput},
		{"zero quantity", []services.OrderItemRequest{{ProductID: "P1", Quantity: 0}}, apperr.InvalidInput},
		{"insufficient stock", []services.OrderItemRequest{{ProductID: "P1", Quantity: 11}}, apperr.InvalidInput},
		{"unknown product", []services.OrderItemRequest{{ProductID: "nope", Quantity: 1}}, apperr.ProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, "u1", tt.items)
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
		})
	}

	orders, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_GetOrderByIDVisibility(t *testing.T) {
	ctx := context.Background()
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), testCatalog(), nil)
	order, err := svc.CreateOrder(ctx, "u1", []services.OrderItemRequest{{ProductID: "P2", Quantity: 1}})
	require.NoError(t, err)

	got, err := svc.GetOrderByID(ctx, services.Identity{UserID: "u1", Role: models.RoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrderByID(ctx, services.Identity{UserID: "u2", Role: models.RoleCustomer}, order.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	got, err = svc.GetOrderByID(ctx, services.Identity{UserID: "admin", Role: models.RoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = svc.GetOrderByID(ctx, services.Identity{UserID: "u1"}, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	pub.On("Publish", services.EventsExchange, models.EventOrderCreated, mock.Anything).Return(nil)
	pub.On("Publish", services.EventsExchange, models.EventOrderStatusChanged, mock.MatchedBy(func(body []byte) bool {
		var evt models.MutationEvent
		return json.Unmarshal(body, &evt) == nil && evt.Action == "completed"
	})).Return(nil).Once()
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), testCatalog(), pub)

	order, err := svc.CreateOrder(ctx, "u1", []services.OrderItemRequest{{ProductID: "P2", Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, models.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, updated.Status)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, "shipped")
	assert.True(t, apperr.Is(err, apperr.InvalidInput))

	_, err = svc.UpdateOrderStatus(ctx, "missing", models.OrderCancelled)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	pub.AssertExpectations(t)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), testCatalog(), nil)
	for _, id := range []string{"P1", "P2"} {
		_, err := svc.CreateOrder(ctx, "u1", []services.OrderItemRequest{{ProductID: id, Quantity: 1}})
		require.NoError(t, err)
	}
	_, err := svc.CreateOrder(ctx, "u2", []services.OrderItemRequest{{ProductID: "P3", Quantity: 1}})
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
