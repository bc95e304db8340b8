package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
	"outfitter/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, time.UTC)
}

// now is Saturday 2026-03-14 10:00 UTC, so the week started on Sunday 2026-03-08.
func analyticsOrders(t *testing.T) *repositories.MockOrderRepository {
	t.Helper()
	repo := repositories.NewMockOrderRepository()
	orders := []models.Order{
		{ID: "o1", UserID: "u1", Status: models.OrderCompleted, TotalAmount: 50, CreatedAt: at(time.March, 14, 9), Items: []models.OrderItem{
			{ProductID: "A", ProductName: "Tent", Quantity: 1, Price: 30, Total: 30},
			{ProductID: "B", ProductName: "Stove", Quantity: 2, Price: 10, Total: 20},
		}},
		{ID: "o2", UserID: "u2", Status: models.OrderPending, TotalAmount: 30, CreatedAt: at(time.March, 14, 8)},
		{ID: "o3", UserID: "u1", Status: models.OrderCompleted, TotalAmount: 20, CreatedAt: at(time.March, 10, 12), Items: []models.OrderItem{
			{ProductID: "B", ProductName: "Stove", Quantity: 1, Price: 10, Total: 10},
			{ProductID: "C", ProductName: "Lamp", Quantity: 1, Price: 10, Total: 10},
		}},
		{ID: "o4", UserID: "u3", Status: models.OrderCancelled, TotalAmount: 40, CreatedAt: at(time.March, 2, 12)},
		{ID: "o5", UserID: "u2", Status: models.OrderCompleted, TotalAmount: 100, CreatedAt: at(time.February, 1, 12)},
		{ID: "o6", UserID: "u3", Status: models.OrderCompleted, TotalAmount: 70, CreatedAt: time.Date(2025, time.December, 31, 12, 0, 0, 0, time.UTC)},
	}
	for i := range orders {
		require.NoError(t, repo.Create(context.Background(), &orders[i]))
	}
	return repo
}

func customerCounts() *MockUserRepository {
	users := new(MockUserRepository)
	counts := map[time.Time]int64{
		at(time.March, 14, 0): 1,
		at(time.March, 8, 0):  3,
		at(time.March, 1, 0):  5,
	}
	users.On("CountCustomers", mock.MatchedBy(func(since *time.Time) bool { return since == nil })).Return(int64(12), nil)
	for since, n := range counts {
		since := since
		users.On("CountCustomers", mock.MatchedBy(func(s *time.Time) bool { return s != nil && s.Equal(since) })).Return(n, nil)
	}
	return users
}

func newAnalytics(orders repositories.OrderRepository, users repositories.UserRepository) *services.AnalyticsService {
	return services.NewAnalyticsService(orders, users, time.UTC).WithClock(func() time.Time { return now })
}

func TestAnalyticsService_DashboardOverview(t *testing.T) {
	users := customerCounts()
	svc := newAnalytics(analyticsOrders(t), users)

	overview, err := svc.DashboardOverview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, services.WindowStats[int]{Today: 2, ThisWeek: 3, ThisMonth: 4, ThisQuarter: 5, ThisYear: 5}, overview.OrderStats)
	assert.Equal(t, services.WindowStats[float64]{Today: 50, ThisWeek: 70, ThisMonth: 70, ThisQuarter: 170, ThisYear: 170}, overview.RevenueStats)
	assert.Equal(t, services.CustomerStats{NewCustomersToday: 1, NewCustomersThisWeek: 3, NewCustomersThisMonth: 5, TotalCustomers: 12}, overview.CustomerStats)

	require.Len(t, overview.DailyRevenue, 7)
	for i, day := range overview.DailyRevenue {
		assert.Equal(t, fmt.Sprintf("2026-03-%02d", 8+i), day.Date)
	}
	assert.Equal(t, services.DailyRevenue{Date: "2026-03-10", Revenue: 20, OrderCount: 1}, overview.DailyRevenue[2])
	assert.Equal(t, services.DailyRevenue{Date: "2026-03-14", Revenue: 50, OrderCount: 1}, overview.DailyRevenue[6])
	assert.Equal(t, services.DailyRevenue{Date: "2026-03-09"}, overview.DailyRevenue[1])

	require.Len(t, overview.RecentOrders, 5)
	assert.Equal(t, "o1", overview.RecentOrders[0].ID)
	assert.Equal(t, 2, overview.RecentOrders[0].ItemCount)
	assert.Equal(t, models.OrderPending, overview.RecentOrders[1].Status)
	assert.Equal(t, "o5", overview.RecentOrders[4].ID)
	users.AssertNumberOfCalls(t, "CountCustomers", 4)
}

func TestAnalyticsService_DashboardOverviewWithoutOrders(t *testing.T) {
	users := new(MockUserRepository)
	users.On("CountCustomers", mock.Anything).Return(int64(0), nil)
	svc := newAnalytics(repositories.NewMockOrderRepository(), users)

	overview, err := svc.DashboardOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.DailyRevenue, 7)
	for _, day := range overview.DailyRevenue {
		assert.Zero(t, day.Revenue)
		assert.Zero(t, day.OrderCount)
	}
	assert.Empty(t, overview.RecentOrders)
	assert.Equal(t, services.WindowStats[int]{}, overview.OrderStats)
}

func TestAnalyticsService_DashboardOverviewStoreDown(t *testing.T) {
	orders := repositories.NewMockOrderRepository()
	orders.Err = apperr.New(apperr.StoreTimeout, "store did not respond in time")
	users := new(MockUserRepository)
	users.On("CountCustomers", mock.Anything).Return(int64(0), nil)

	overview, err := newAnalytics(orders, users).DashboardOverview(context.Background())
	assert.Nil(t, overview)
	assert.True(t, apperr.Is(err, apperr.AggregationFailed))
}

func TestAnalyticsService_DetailedAnalytics(t *testing.T) {
	svc := newAnalytics(analyticsOrders(t), new(MockUserRepository))

	res, err := svc.DetailedAnalytics(context.Background(), services.AnalyticsFilter{
		StartDate: at(time.March, 1, 0),
		EndDate:   time.Date(2026, time.March, 14, 23, 59, 59, 0, time.UTC),
		Period:    "week",
	})
	require.NoError(t, err)

	assert.Equal(t, "WEEK", res.Period)
	assert.Equal(t, 4, res.TotalOrders)
	assert.Equal(t, 70.0, res.TotalRevenue)
	assert.Equal(t, 35.0, res.AverageOrderValue)

	assert.Equal(t, []services.ProductSales{
		{ProductID: "A", ProductName: "Tent", TotalSold: 1, TotalRevenue: 30},
		{ProductID: "B", ProductName: "Stove", TotalSold: 3, TotalRevenue: 30},
		{ProductID: "C", ProductName: "Lamp", TotalSold: 1, TotalRevenue: 10},
	}, res.TopProducts)

	assert.Equal(t, []services.DailyRevenue{
		{Date: "2026-03-10", Revenue: 20, OrderCount: 1},
		{Date: "2026-03-14", Revenue: 50, OrderCount: 1},
	}, res.DailyBreakdown)
}

func TestAnalyticsService_DetailedAnalyticsInclusiveBounds(t *testing.T) {
	svc := newAnalytics(analyticsOrders(t), new(MockUserRepository))

	res, err := svc.DetailedAnalytics(context.Background(), services.AnalyticsFilter{
		StartDate: at(time.March, 10, 12),
		EndDate:   at(time.March, 14, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalOrders)
	assert.Equal(t, 70.0, res.TotalRevenue)
}

func TestAnalyticsService_DetailedAnalyticsNoCompleted(t *testing.T) {
	svc := newAnalytics(analyticsOrders(t), new(MockUserRepository))

	res, err := svc.DetailedAnalytics(context.Background(), services.AnalyticsFilter{
		StartDate: at(time.March, 2, 0),
		EndDate:   at(time.March, 3, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalOrders)
	assert.Zero(t, res.TotalRevenue)
	assert.Zero(t, res.AverageOrderValue)
	assert.Empty(t, res.TopProducts)
	assert.Empty(t, res.DailyBreakdown)
}

func TestAnalyticsService_TopProductsLimit(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	order := models.Order{ID: "big", Status: models.OrderCompleted, CreatedAt: at(time.March, 5, 12)}
	for i := 0; i < 12; i++ {
		order.Items = append(order.Items, models.OrderItem{ProductID: fmt.Sprintf("P%02d", i), Quantity: 1, Total: float64(i + 1)})
		order.TotalAmount += float64(i + 1)
	}
	require.NoError(t, repo.Create(context.Background(), &order))

	res, err := newAnalytics(repo, new(MockUserRepository)).DetailedAnalytics(context.Background(), services.AnalyticsFilter{
		StartDate: at(time.March, 1, 0),
		EndDate:   at(time.March, 31, 0),
	})
	require.NoError(t, err)
	require.Len(t, res.TopProducts, 10)
	assert.Equal(t, "P11", res.TopProducts[0].ProductID)
	assert.Equal(t, "P02", res.TopProducts[9].ProductID)
}

func TestAnalyticsService_DetailedAnalyticsValidation(t *testing.T) {
	svc := newAnalytics(repositories.NewMockOrderRepository(), new(MockUserRepository))
	ctx := context.Background()

	tests := []struct {
		name   string
		filter services.AnalyticsFilter
	}{
		{"missing dates", services.AnalyticsFilter{}},
		{"end before start", services.AnalyticsFilter{StartDate: at(time.March, 2, 0), EndDate: at(time.March, 1, 0)}},
		{"unknown period", services.AnalyticsFilter{StartDate: at(time.March, 1, 0), EndDate: at(time.March, 2, 0), Period: "fortnight"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DetailedAnalytics(ctx, tt.filter)
			assert.True(t, apperr.Is(err, apperr.InvalidInput))
		})
	}
}

func TestAnalyticsService_DetailedAnalyticsStoreDown(t *testing.T) {
	orders := repositories.NewMockOrderRepository()
	orders.Err = apperr.New(apperr.StoreTimeout, "store did not respond in time")

	_, err := newAnalytics(orders, new(MockUserRepository)).DetailedAnalytics(context.Background(), services.AnalyticsFilter{
		StartDate: at(time.March, 1, 0),
		EndDate:   at(time.March, 2, 0),
	})
	assert.True(t, apperr.Is(err, apperr.AggregationFailed))
}
