package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/internal/repository"
	"github.com/nimasrn/payment-tracker/internal/services"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("invalid usage")

type app struct {
	out       io.Writer
	repo      *repository.PaymentRepository
	cache     dashboard.SnapshotCache
	listLimit int
	recent    time.Duration

	// set when stats queries should share one read-only transaction
	snapshotTx services.Transactor

	payments  *services.PaymentService
	stats     *services.StatsService
	refresher *dashboard.Refresher
}

func (a *app) wire(interval time.Duration) {
	a.payments = services.NewPaymentService(a.repo)
	a.stats = services.NewStatsService(a.repo, a.recent)
	if a.snapshotTx != nil {
		a.stats.WithSnapshot(a.snapshotTx)
	}
	opts := []dashboard.Option{dashboard.WithListLimit(a.listLimit)}
	if a.cache != nil {
		opts = append(opts, dashboard.WithCache(a.cache))
	}
	a.refresher = dashboard.NewRefresher(a.payments, a.stats, interval, opts...)
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "set-status":
		return a.setStatus(ctx, rest)
	case "stats":
		return a.printStats(ctx)
	case "watch":
		return a.watch(ctx, rest)
	case "snapshot":
		return a.snapshot(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list", a.out)
	limit := fs.Int("limit", a.listLimit, "number of payments to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := a.payments.List(ctx, *limit)
	if err != nil {
		return err
	}
	a.printPayments(items)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add", a.out)
	name := fs.String("name", "", "customer name")
	amount := fs.String("amount", "", "amount, e.g. 49.99")
	currency := fs.String("currency", string(model.CurrencyUSD), "USD, EUR, GBP or JPY")
	method := fs.String("method", string(model.PaymentMethodCreditCard), "credit_card, debit_card, paypal or bank_transfer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a number", errUsage, *amount)
	}
	p, err := a.payments.Insert(ctx, model.PaymentCreateRequest{
		CustomerName:  *name,
		Amount:        amt,
		Currency:      model.Currency(strings.ToUpper(*currency)),
		PaymentMethod: model.PaymentMethod(*method),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment #%d added: %s %s %s\n", p.ID, p.CustomerName, p.Amount.StringFixed(2), p.Currency)
	return nil
}

func (a *app) setStatus(ctx context.Context, args []string) error {
	fs := newFlagSet("set-status", a.out)
	id := fs.Int64("id", 0, "payment id")
	status := fs.String("status", "", "pending, completed, failed or refunded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: --id is required", errUsage)
	}
	if _, err := a.payments.UpdateStatus(ctx, *id, model.PaymentStatus(*status)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Payment #%d is now %s\n", *id, *status)
	return nil
}

func (a *app) printStats(ctx context.Context) error {
	stats, err := a.stats.Compute(ctx)
	if err != nil {
		return err
	}
	a.printStatsTable(stats)
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch", a.out)
	interval := fs.Duration("interval", a.refresher.Interval(), "refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval != a.refresher.Interval() {
		a.wire(*interval)
	}

	ch, cancel := a.refresher.Subscribe(1)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.refresher.Run(ctx) }()

	for {
		select {
		case s := <-ch:
			a.printSnapshot(s)
		case err := <-done:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (a *app) snapshot(ctx context.Context) error {
	if a.cache == nil {
		return errors.New("snapshot cache is not configured, set REDIS_ADDR")
	}
	s, err := a.cache.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintln(a.out, "No snapshot cached yet.")
		return nil
	}
	a.printSnapshot(s)
	return nil
}

func (a *app) printSnapshot(s *dashboard.Snapshot) {
	fmt.Fprintf(a.out, "== %s ==\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	if s.StatsError != "" {
		fmt.Fprintln(a.out, "stats unavailable:", s.StatsError)
	} else {
		a.printStatsTable(s.Stats)
	}
	if s.PaymentsError != "" {
		fmt.Fprintln(a.out, "payments unavailable:", s.PaymentsError)
		return
	}
	a.printPayments(s.Payments)
}

func (a *app) printStatsTable(stats *model.Stats) {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Today's payments\t%d\n", stats.TodayCount)
	fmt.Fprintf(w, "Today's total\t$%s\n", stats.TodayTotal.StringFixed(2))
	fmt.Fprintf(w, "Pending\t%d\n", stats.Pending())
	fmt.Fprintf(w, "Last hour\t%d\n", stats.RecentActivity)
	for _, status := range model.PaymentStatuses {
		if c, ok := stats.StatusDistribution[status]; ok {
			fmt.Fprintf(w, "  %s\t%d\n", status, c)
		}
	}
	_ = w.Flush()
}

func (a *app) printPayments(items []*model.Payment) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No payments found.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tAMOUNT\tCURRENCY\tSTATUS\tMETHOD\tCREATED")
	for _, p := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.CustomerName, p.Amount.StringFixed(2), p.Currency, p.Status, p.PaymentMethod,
			p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}
