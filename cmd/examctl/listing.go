package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/internal/service/guard"
	"github.com/heartmarshall/examwatch/internal/service/incident"
)

// filterFlags registers -building, -verified and -search on fs. Only flags
// given on the command line end up in the update.
func filterFlags(fs *flag.FlagSet) *domain.FilterUpdate {
	upd := &domain.FilterUpdate{}
	fs.Func("building", "building code", func(v string) error {
		upd.Building = domain.Set(v)
		return nil
	})
	fs.Func("verified", "true or false", func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid -verified %q", v)
		}
		upd.Verified = domain.Set(b)
		return nil
	})
	fs.Func("search", "substring of type or hall", func(v string) error {
		upd.Search = domain.Set(v)
		return nil
	})
	return upd
}

func (c *cli) incidents(ctx context.Context, args []string) error {
	fs := newFlagSet("incidents")
	upd := filterFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.protected(ctx); err != nil {
		return err
	}

	list := c.app.Incidents()
	if err := list.SetFilter(ctx, *upd); err != nil {
		return fmt.Errorf("list incidents: %s", domain.Message(err, "request failed"))
	}
	printIncidents(c.out, list.Snapshot().Items, list.Summary())
	return nil
}

func (c *cli) buildings(ctx context.Context, _ []string) error {
	if err := c.protected(ctx); err != nil {
		return err
	}
	names, err := c.app.Client.ListBuildings(ctx)
	if err != nil {
		return fmt.Errorf("list buildings: %s", domain.Message(err, "request failed"))
	}
	for _, n := range names {
		fmt.Fprintln(c.out, n)
	}
	return nil
}

func (c *cli) stats(ctx context.Context, _ []string) error {
	if err := c.protected(ctx); err != nil {
		return err
	}

	dash, err := c.app.Client.DashboardStats(ctx)
	if err != nil {
		return fmt.Errorf("dashboard stats: %s", domain.Message(err, "request failed"))
	}
	byType, err := c.app.Client.IncidentStats(ctx)
	if err != nil {
		return fmt.Errorf("incident stats: %s", domain.Message(err, "request failed"))
	}

	fmt.Fprintf(c.out, "incidents: %d (verified %d, pending %d) in %d halls\n",
		dash.TotalIncidents, dash.VerifiedCount, dash.UnverifiedCount, dash.TotalHalls)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCOUNT")
	for _, tc := range byType.ByType {
		fmt.Fprintf(tw, "%s\t%d\n", tc.Type.Label(), tc.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(dash.RecentIncidents) > 0 {
		fmt.Fprintln(c.out, "\nrecent:")
		printIncidents(c.out, dash.RecentIncidents, domain.Summarize(dash.RecentIncidents))
	}
	return nil
}

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	interval := fs.Duration("interval", c.app.Config.Incidents.WatchInterval, "refresh interval")
	metricsAddr := fs.String("metrics-addr", c.app.Config.Metrics.Addr, "serve Prometheus metrics on this address")
	upd := filterFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("watch: interval must be positive")
	}
	if err := c.protected(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *metricsAddr != "" {
		stopMetrics := c.serveMetrics(*metricsAddr)
		defer stopMetrics()
	}

	// Stop when the session ends, e.g. the refresh token was revoked.
	sessions, unsubscribe := c.app.Session.Subscribe()
	defer unsubscribe()
	decisions := guard.Watch(ctx, sessions, guard.ViewProtected)

	list := c.app.Incidents()
	states, unwatch := list.Subscribe()
	defer unwatch()

	if err := list.Load(ctx); err != nil {
		c.app.Log.WarnContext(ctx, "initial load", slog.String("error", err.Error()))
	}
	if !upd.IsZero() {
		_ = list.SetFilter(ctx, *upd)
	}
	if b := list.Snapshot().Buildings; len(b) > 0 {
		fmt.Fprintf(c.out, "buildings: %s\n", strings.Join(b, ", "))
	}
	fmt.Fprintln(c.out, "filter commands: building [B], verified [true|false], search [TEXT], reset, refresh, quit")

	debouncer := incident.NewDebouncer(list, c.app.Config.Incidents.FilterDebounce)
	defer debouncer.Stop()

	lines := scanLines(ctx, c.in)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var last *domain.ListState
	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-decisions:
			if !ok {
				return nil
			}
			if d.Outcome == guard.Redirect {
				return errNotLoggedIn
			}

		case st := <-states:
			if st.IsLoading || (last != nil && sameListing(*last, st)) {
				continue
			}
			last = &st
			fmt.Fprintf(c.out, "\n%s  %s\n", time.Now().Format(time.TimeOnly), describeFilter(st.Filter))
			printIncidents(c.out, st.Items, domain.Summarize(st.Items))
			if st.LastError != nil {
				fmt.Fprintf(c.out, "last refresh failed: %s\n", domain.Message(st.LastError, "request failed"))
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			quit, err := c.watchCommand(ctx, list, debouncer, line)
			if err != nil {
				fmt.Fprintln(c.out, err)
			}
			if quit {
				return nil
			}

		case <-ticker.C:
			err := list.Refresh(ctx)
			switch {
			case err == nil, errors.Is(err, domain.ErrSuperseded), errors.Is(err, context.Canceled):
			case errors.Is(err, domain.ErrUnauthorized):
				// The client could not refresh the access token.
				_ = c.app.Session.FetchUser(ctx)
			default:
				c.app.Log.WarnContext(ctx, "refresh", slog.String("error", err.Error()))
			}
		}
	}
}

// watchCommand applies one interactive filter command. Filter edits go
// through the debouncer so fast typing results in one fetch.
func (c *cli) watchCommand(ctx context.Context, list *incident.Synchronizer, d *incident.Debouncer, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "building":
		if arg == "" {
			d.Update(ctx, domain.FilterUpdate{Building: domain.Clear[string]()})
		} else {
			d.Update(ctx, domain.FilterUpdate{Building: domain.Set(arg)})
		}
	case "search":
		if arg == "" {
			d.Update(ctx, domain.FilterUpdate{Search: domain.Clear[string]()})
		} else {
			d.Update(ctx, domain.FilterUpdate{Search: domain.Set(arg)})
		}
	case "verified":
		if arg == "" || arg == "any" {
			d.Update(ctx, domain.FilterUpdate{Verified: domain.Clear[bool]()})
			break
		}
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return false, fmt.Errorf("verified: want true, false or any")
		}
		d.Update(ctx, domain.FilterUpdate{Verified: domain.Set(b)})
	case "reset":
		d.Stop()
		return false, ignoreSuperseded(list.ResetFilters(ctx))
	case "refresh":
		if err := d.Flush(ctx); err != nil {
			return false, ignoreSuperseded(err)
		}
		return false, ignoreSuperseded(list.Refresh(ctx))
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func ignoreSuperseded(err error) error {
	if errors.Is(err, domain.ErrSuperseded) {
		return nil
	}
	return err
}

// scanLines delivers lines read from r until EOF or ctx is done.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func describeFilter(f domain.IncidentFilter) string {
	if f.IsEmpty() {
		return "all incidents"
	}
	return f.Query().Encode()
}

func (c *cli) serveMetrics(addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(c.app.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.app.Log.Error("metrics server", slog.String("error", err.Error()))
		}
	}()
	c.app.Log.Info("serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func sameListing(a, b domain.ListState) bool {
	if !a.Filter.Equal(b.Filter) || len(a.Items) != len(b.Items) || (a.LastError == nil) != (b.LastError == nil) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].ID != b.Items[i].ID || a.Items[i].Verified != b.Items[i].Verified {
			return false
		}
	}
	return true
}

func printIncidents(w io.Writer, items []domain.Incident, sum domain.IncidentSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tHALL\tBUILDING\tDETECTED\tSTATUS")
	for _, it := range items {
		status := "pending"
		if it.Verified {
			status = "verified"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Type.Label(), it.LectureHallName, it.Building,
			it.DetectedAt.Local().Format("2006-01-02 15:04"), status)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "total %d, verified %d, pending %d\n", sum.Total, sum.Verified, sum.Pending)
}

func printUser(w io.Writer, u *domain.User) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "%s (%s)\n", u.DisplayName(), u.Username)
	if u.Email != "" {
		fmt.Fprintf(w, "email: %s\n", u.Email)
	}
	if u.IsSuperuser {
		fmt.Fprintln(w, "role: administrator")
	}
}
