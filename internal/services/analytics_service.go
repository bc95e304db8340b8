package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"outfitter/internal/apperr"
	"outfitter/internal/models"
	"outfitter/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	dailySeriesDays  = 7
	recentOrderLimit = 5
	topProductLimit  = 10
	dayLayout        = "2006-01-02"
)

// Periods accepted by DetailedAnalytics.
const (
	PeriodDay     = "DAY"
	PeriodWeek    = "WEEK"
	PeriodMonth   = "MONTH"
	PeriodQuarter = "QUARTER"
	PeriodYear    = "YEAR"
)

// WindowStats holds one value per rolling calendar window.
type WindowStats[T int | float64] struct {
	Today       T `json:"today"`
	ThisWeek    T `json:"thisWeek"`
	ThisMonth   T `json:"thisMonth"`
	ThisQuarter T `json:"thisQuarter"`
	ThisYear    T `json:"thisYear"`
}

type CustomerStats struct {
	NewCustomersToday     int `json:"newCustomersToday"`
	NewCustomersThisWeek  int `json:"newCustomersThisWeek"`
	NewCustomersThisMonth int `json:"newCustomersThisMonth"`
	TotalCustomers        int `json:"totalCustomers"`
}

// DailyRevenue is one calendar day of completed orders.
type DailyRevenue struct {
	Date       string  `json:"date"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"orderCount"`
}

type RecentOrder struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	TotalAmount float64            `json:"totalAmount"`
	Status      models.OrderStatus `json:"status"`
	ItemCount   int                `json:"itemCount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type DashboardOverview struct {
	OrderStats    WindowStats[int]     `json:"orderStats"`
	RevenueStats  WindowStats[float64] `json:"revenueStats"`
	CustomerStats CustomerStats        `json:"customerStats"`
	DailyRevenue  []DailyRevenue       `json:"dailyRevenue"`
	RecentOrders  []RecentOrder        `json:"recentOrders"`
}

// AnalyticsFilter selects the inclusive createdAt range of DetailedAnalytics.
type AnalyticsFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Period    string
}

type ProductSales struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	TotalSold    int     `json:"totalSold"`
	TotalRevenue float64 `json:"totalRevenue"`
}

type DetailedAnalytics struct {
	StartDate         time.Time      `json:"startDate"`
	EndDate           time.Time      `json:"endDate"`
	Period            string         `json:"period,omitempty"`
	TotalOrders       int            `json:"totalOrders"`
	TotalRevenue      float64        `json:"totalRevenue"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	TopProducts       []ProductSales `json:"topProducts"`
	DailyBreakdown    []DailyRevenue `json:"dailyBreakdown"`
}

// AnalyticsService computes dashboard rollups from order history. Calendar windows and day
// buckets are taken in loc.
type AnalyticsService struct {
	orders repositories.OrderRepository
	users  repositories.UserRepository
	loc    *time.Location
	now    func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. A nil loc means time.Local.
func NewAnalyticsService(orders repositories.OrderRepository, users repositories.UserRepository, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{orders: orders, users: users, loc: loc, now: time.Now}
}

// WithClock replaces the clock that defines "now" for the rolling windows.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

type windows struct {
	now, today, week, month, quarter, year, series time.Time
}

func (s *AnalyticsService) windowsAt(now time.Time) windows {
	now = now.In(s.loc)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	return windows{
		now:     now,
		today:   today,
		week:    today.AddDate(0, 0, -int(today.Weekday())),
		month:   time.Date(y, m, 1, 0, 0, 0, 0, s.loc),
		quarter: time.Date(y, ((m-1)/3)*3+1, 1, 0, 0, 0, 0, s.loc),
		year:    time.Date(y, time.January, 1, 0, 0, 0, 0, s.loc),
		series:  today.AddDate(0, 0, -(dailySeriesDays - 1)),
	}
}

// DashboardOverview computes order counts (any status) and completed revenue for the rolling
// calendar windows, new customer counts, a zero-filled 7 day series and the latest orders.
func (s *AnalyticsService) DashboardOverview(ctx context.Context) (*DashboardOverview, error) {
	w := s.windowsAt(s.now())
	from := w.year
	if w.series.Before(from) {
		from = w.series
	}

	var (
		orders                  []models.Order
		recent                  []models.Order
		today, week, month, all int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.orders.ListCreatedBetween(gctx, from, w.now)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.orders.Recent(gctx, recentOrderLimit)
		return err
	})
	for _, c := range []struct {
		since *time.Time
		dst   *int64
	}{{&w.today, &today}, {&w.week, &week}, {&w.month, &month}, {nil, &all}} {
		c := c
		g.Go(func() (err error) {
			*c.dst, err = s.users.CountCustomers(gctx, c.since)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.AggregationFailed, "analytics aggregation failed", err)
	}

	var counts WindowStats[int]
	var revenue [5]decimal.Decimal
	starts := [5]time.Time{w.today, w.week, w.month, w.quarter, w.year}
	for _, o := range orders {
		completed := o.Status == models.OrderCompleted
		amount := decimal.NewFromFloat(o.TotalAmount)
		for i, start := range starts {
			if o.CreatedAt.Before(start) {
				continue
			}
			counts.add(i, 1)
			if completed {
				revenue[i] = revenue[i].Add(amount)
			}
		}
	}

	overview := &DashboardOverview{
		OrderStats: counts,
		RevenueStats: WindowStats[float64]{
			Today:       revenue[0].InexactFloat64(),
			ThisWeek:    revenue[1].InexactFloat64(),
			ThisMonth:   revenue[2].InexactFloat64(),
			ThisQuarter: revenue[3].InexactFloat64(),
			ThisYear:    revenue[4].InexactFloat64(),
		},
		CustomerStats: CustomerStats{
			NewCustomersToday:     int(today),
			NewCustomersThisWeek:  int(week),
			NewCustomersThisMonth: int(month),
			TotalCustomers:        int(all),
		},
		DailyRevenue: s.dailySeries(w.series, orders),
		RecentOrders: make([]RecentOrder, len(recent)),
	}
	for i, o := range recent {
		overview.RecentOrders[i] = RecentOrder{
			ID:          o.ID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			ItemCount:   len(o.Items),
			CreatedAt:   o.CreatedAt,
		}
	}
	return overview, nil
}

func (w *WindowStats[T]) add(i int, v T) {
	switch i {
	case 0:
		w.Today += v
	case 1:
		w.ThisWeek += v
	case 2:
		w.ThisMonth += v
	case 3:
		w.ThisQuarter += v
	case 4:
		w.ThisYear += v
	}
}

// dailySeries always returns dailySeriesDays entries starting at start, zero where a day has
// no completed orders.
func (s *AnalyticsService) dailySeries(start time.Time, orders []models.Order) []DailyRevenue {
	byDay := s.bucketCompleted(orders, start)
	series := make([]DailyRevenue, dailySeriesDays)
	for i := range series {
		day := start.AddDate(0, 0, i).Format(dayLayout)
		series[i] = DailyRevenue{Date: day}
		if b, ok := byDay[day]; ok {
			series[i].Revenue = b.revenue.InexactFloat64()
			series[i].OrderCount = b.count
		}
	}
	return series
}

type dayBucket struct {
	revenue decimal.Decimal
	count   int
}

func (s *AnalyticsService) bucketCompleted(orders []models.Order, from time.Time) map[string]*dayBucket {
	out := make(map[string]*dayBucket)
	for _, o := range orders {
		if o.Status != models.OrderCompleted || o.CreatedAt.Before(from) {
			continue
		}
		key := o.CreatedAt.In(s.loc).Format(dayLayout)
		b, ok := out[key]
		if !ok {
			b = &dayBucket{}
			out[key] = b
		}
		b.revenue = b.revenue.Add(decimal.NewFromFloat(o.TotalAmount))
		b.count++
	}
	return out
}

// NormalizePeriod validates an optional period, returning it upper-cased.
func NormalizePeriod(period string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(period))
	switch p {
	case "", PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	}
	return "", apperr.Newf(apperr.InvalidInput, "unknown analytics period %q", period)
}

// DetailedAnalytics summarizes orders created in [StartDate, EndDate]. Revenue, average order
// value, top products and the daily breakdown use completed orders only; the breakdown lists
// only days that have completed orders. Top products are ranked by revenue, ties by product id.
func (s *AnalyticsService) DetailedAnalytics(ctx context.Context, filter AnalyticsFilter) (*DetailedAnalytics, error) {
	if filter.StartDate.IsZero() || filter.EndDate.IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "startDate and endDate are required")
	}
	if filter.EndDate.Before(filter.StartDate) {
		return nil, apperr.New(apperr.InvalidInput, "endDate must not be before startDate")
	}
	period, err := NormalizePeriod(filter.Period)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListCreatedBetween(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.AggregationFailed, "analytics aggregation failed", err)
	}

	var (
		revenue   decimal.Decimal
		completed int
		products  = make(map[string]*productTally)
		order     []string
	)
	for _, o := range orders {
		if o.Status != models.OrderCompleted {
			continue
		}
		completed++
		revenue = revenue.Add(decimal.NewFromFloat(o.TotalAmount))
		for _, it := range o.Items {
			t, ok := products[it.ProductID]
			if !ok {
				t = &productTally{name: it.ProductName}
				products[it.ProductID] = t
				order = append(order, it.ProductID)
			}
			t.sold += it.Quantity
			t.revenue = t.revenue.Add(decimal.NewFromFloat(it.Total))
		}
	}

	result := &DetailedAnalytics{
		StartDate:      filter.StartDate,
		EndDate:        filter.EndDate,
		Period:         period,
		TotalOrders:    len(orders),
		TotalRevenue:   revenue.InexactFloat64(),
		TopProducts:    topProducts(products, order),
		DailyBreakdown: s.dailyBreakdown(orders),
	}
	if completed > 0 {
		result.AverageOrderValue = result.TotalRevenue / float64(completed)
	}
	return result, nil
}

type productTally struct {
	name    string
	sold    int
	revenue decimal.Decimal
}

func topProducts(tallies map[string]*productTally, ids []string) []ProductSales {
	sort.SliceStable(ids, func(i, j int) bool {
		ri, rj := tallies[ids[i]].revenue, tallies[ids[j]].revenue
		if c := ri.Cmp(rj); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})
	if len(ids) > topProductLimit {
		ids = ids[:topProductLimit]
	}
	out := make([]ProductSales, len(ids))
	for i, id := range ids {
		t := tallies[id]
		out[i] = ProductSales{
			ProductID:    id,
			ProductName:  t.name,
			TotalSold:    t.sold,
			TotalRevenue: t.revenue.InexactFloat64(),
		}
	}
	return out
}

// dailyBreakdown lists only the days that have completed orders, oldest first.
func (s *AnalyticsService) dailyBreakdown(orders []models.Order) []DailyRevenue {
	byDay := s.bucketCompleted(orders, time.Time{})
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	out := make([]DailyRevenue, len(days))
	for i, day := range days {
		out[i] = DailyRevenue{Date: day, Revenue: byDay[day].revenue.InexactFloat64(), OrderCount: byDay[day].count}
	}
	return out
}
