package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-crm.git/internal/crm"
)

const (
	heartbeatLayout = "02/01/2006-15:04:05"
	reportLayout    = "2006-01-02 15:04:05"
)

type Job interface {
	Run(ctx context.Context) error
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Heartbeat appends a liveness line.
type Heartbeat struct {
	Sink Sink
	Now  func() time.Time
}

func (h *Heartbeat) Run(ctx context.Context) error {
	return AppendLines(h.Sink, fmt.Sprintf("%s CRM is alive", clock(h.Now).now().Format(heartbeatLayout)))
}

type Replenisher interface {
	ReplenishLowStock(ctx context.Context, in crm.ReplenishInput) (*crm.ReplenishResult, error)
}

// LowStock runs the replenishment policy and logs every product it touched.
type LowStock struct {
	Replenisher Replenisher
	Input       crm.ReplenishInput
	Sink        Sink
	Now         func() time.Time
}

func (j *LowStock) Run(ctx context.Context) error {
	ts := clock(j.Now).now().Format(heartbeatLayout)
	res, err := j.Replenisher.ReplenishLowStock(ctx, j.Input)
	if err != nil {
		_ = AppendLines(j.Sink, "", fmt.Sprintf("%s - Error: %v", ts, err))
		return fmt.Errorf("low stock: %w", err)
	}
	if !res.Success {
		_ = AppendLines(j.Sink, "", fmt.Sprintf("%s - Error: %s %v", ts, res.Message, res.Errors))
		return fmt.Errorf("low stock rejected: %v", res.Errors)
	}

	lines := []string{"", fmt.Sprintf("%s - %s", ts, res.Message)}
	for _, p := range res.UpdatedProducts {
		lines = append(lines, fmt.Sprintf("Product: %s, New stock: %d", p.Name, p.Stock))
	}
	return AppendLines(j.Sink, lines...)
}

type ReportSource interface {
	ListCustomers(ctx context.Context, sort string) ([]crm.Customer, error)
	ListOrders(ctx context.Context, sort string) ([]crm.Order, error)
}

// Report appends one summary line: customers, orders and revenue.
type Report struct {
	Source ReportSource
	Sink   Sink
	Now    func() time.Time
}

func (r *Report) Run(ctx context.Context) error {
	ts := clock(r.Now).now().Format(reportLayout)
	line, err := r.summary(ctx)
	if err != nil {
		_ = AppendLines(r.Sink, fmt.Sprintf("%s - Error generating CRM report: %v", ts, err))
		return fmt.Errorf("report: %w", err)
	}
	return AppendLines(r.Sink, fmt.Sprintf("%s - %s", ts, line))
}

func (r *Report) summary(ctx context.Context) (string, error) {
	customers, err := r.Source.ListCustomers(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}
	orders, err := r.Source.ListOrders(ctx, "")
	if err != nil {
		return "", fmt.Errorf("list orders: %w", err)
	}
	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
	}
	return fmt.Sprintf("Report: %d customers, %d orders, %s revenue.",
		len(customers), len(orders), revenue.StringFixed(crm.MoneyPlaces)), nil
}

type RecentOrders interface {
	OrdersSince(ctx context.Context, since time.Time) ([]crm.RecentOrder, error)
}

// Reminders logs orders placed since midnight Window ago (default 7 days).
type Reminders struct {
	Source RecentOrders
	Sink   Sink
	Window time.Duration
	Now    func() time.Time
}

func (j *Reminders) Run(ctx context.Context) error {
	now := clock(j.Now).now()
	window := j.Window
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	ts := "[" + now.Format(reportLayout) + "] "

	// whole days: the window opens at midnight
	since := now.Add(-window)
	since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, since.Location())

	orders, err := j.Source.OrdersSince(ctx, since)
	if err != nil {
		_ = AppendLines(j.Sink, ts+"Error querying orders: "+err.Error())
		return fmt.Errorf("reminders: %w", err)
	}
	if len(orders) == 0 {
		return AppendLines(j.Sink, ts+"No orders found in the last 7 days.")
	}
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("%sOrder ID: %s, Customer Email: %s", ts, o.OrderID, o.CustomerEmail))
	}
	return AppendLines(j.Sink, lines...)
}
