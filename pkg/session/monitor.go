package session

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// SQLEcho logs every statement sent to the database.
type SQLEcho struct {
	W io.Writer
}

// Observe implements Observer.
func (e *SQLEcho) Observe(ev Event) {
	fmt.Fprintf(e.W, "[SQL] %s\n", ev.SQL)
}

// Profiler prints the elapsed time of every statement.
type Profiler struct {
	W io.Writer
}

// Observe implements Observer.
func (p *Profiler) Observe(ev Event) {
	status := "ok"
	if ev.Err != nil {
		status = "failed"
	}
	fmt.Fprintf(p.W, "[Profile] %s in %s, %d rows (%s)\n", status, ev.Duration.Round(time.Microsecond), ev.Rows, ev.SQL)
}

// Monitor counts executions per statement and reports them on demand.
type Monitor struct {
	Logger *slog.Logger
	stats  map[string]*queryStats
}

type queryStats struct {
	sql    string
	count  int
	errors int
	total  time.Duration
	max    time.Duration
}

// NewMonitor creates an empty query monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{Logger: logger, stats: make(map[string]*queryStats)}
}

// Observe implements Observer.
func (m *Monitor) Observe(ev Event) {
	st, ok := m.stats[ev.SQL]
	if !ok {
		st = &queryStats{sql: ev.SQL}
		m.stats[ev.SQL] = st
	}
	st.count++
	st.total += ev.Duration
	if ev.Duration > st.max {
		st.max = ev.Duration
	}
	if ev.Err != nil {
		st.errors++
	}
	m.Logger.Debug("statement executed", slog.String("sql", ev.SQL), slog.Duration("duration", ev.Duration))
}

// Report writes a table of per-statement counts, most executed first.
func (m *Monitor) Report(w io.Writer) {
	if len(m.stats) == 0 {
		fmt.Fprintln(w, "Query monitor: no statements executed")
		return
	}

	all := make([]*queryStats, 0, len(m.stats))
	for _, st := range m.stats {
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].sql < all[j].sql
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Query monitor")
	t.AppendHeader(table.Row{"Statement", "Count", "Errors", "Total", "Max"})
	for _, st := range all {
		t.AppendRow(table.Row{st.sql, st.count, st.errors, st.total.Round(time.Microsecond), st.max.Round(time.Microsecond)})
	}
	t.Render()
}
