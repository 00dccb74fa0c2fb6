package impute

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default column names for material stock exports.
const (
	DefaultGroupColumn  = "material"
	DefaultTargetColumn = "qty_final"
)

// ErrNilTable is returned when Run is handed a nil table.
var ErrNilTable = errors.New("table is nil")

// CoercionEvent records a non-missing value that could not be read as a number
// and became missing. Events are informational; they never fail a run.
type CoercionEvent struct {
	Group  any    `json:"group"`
	Row    int    `json:"row"` // 0-based index in the input table
	Raw    any    `json:"raw"`
	Reason string `json:"reason"`
}

// Option configures an Imputer.
type Option func(*Imputer)

// WithWorkers processes up to n groups concurrently. Output order is unaffected.
func WithWorkers(n int) Option {
	return func(im *Imputer) { im.workers = n }
}

// WithNumberFormat sets how numeric text in the target column is parsed.
func WithNumberFormat(nf NumberFormat) Option {
	return func(im *Imputer) { im.format = nf }
}

// WithCoercionHook is called once per CoercionEvent, in output order, after all groups are processed.
func WithCoercionHook(fn func(CoercionEvent)) Option {
	return func(im *Imputer) { im.hook = fn }
}

// WithLogger enables debug logging of coercions and per-group results.
func WithLogger(l *zap.Logger) Option {
	return func(im *Imputer) {
		if l != nil {
			im.log = l
		}
	}
}

// Imputer coerces a target column to numbers and fills missing values with
// the mean of the target within each group of the group column.
type Imputer struct {
	group   string
	target  string
	workers int
	format  NumberFormat
	hook    func(CoercionEvent)
	log     *zap.Logger
}

// New builds an Imputer for the given group and target columns.
func New(groupColumn, targetColumn string, opts ...Option) *Imputer {
	im := &Imputer{group: groupColumn, target: targetColumn, workers: 1, log: zap.NewNop()}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Clean is Run with default options and a background context.
func Clean(t *table.Table, groupColumn, targetColumn string) (*table.Table, error) {
	out, _, err := New(groupColumn, targetColumn).Run(context.Background(), t)
	return out, err
}

type group struct {
	key  any
	rows []int
}

type groupResult struct {
	rows   []table.Row
	report GroupReport
	events []CoercionEvent
}

// Run returns a new table whose target column holds float64 values, or nil
// where a group has no numeric values at all. Rows are ordered by the first
// appearance of their group; within a group the input order is kept. t is not modified.
func (im *Imputer) Run(ctx context.Context, t *table.Table) (*table.Table, *Report, error) {
	if t == nil {
		return nil, nil, ErrNilTable
	}
	if err := t.Require(im.group, im.target); err != nil {
		return nil, nil, err
	}

	groups := partition(t, im.group)
	results := make([]groupResult, len(groups))
	if im.workers > 1 && len(groups) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(im.workers)
		for i := range groups {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = im.processGroup(t, groups[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	} else {
		for i := range groups {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			results[i] = im.processGroup(t, groups[i])
		}
	}
	// errgroup cancels gctx after Wait; a parent cancellation still has to surface.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := table.New(t.Columns...)
	out.Rows = make([]table.Row, 0, t.Len())
	rep := &Report{
		RunID:        uuid.NewString(),
		GroupColumn:  im.group,
		TargetColumn: im.target,
		Rows:         t.Len(),
		Groups:       make([]GroupReport, 0, len(results)),
	}
	for _, res := range results {
		out.Rows = append(out.Rows, res.rows...)
		rep.add(res.report)
		for _, ev := range res.events {
			im.log.Debug("coerced value to missing",
				zap.String("group", res.report.Key),
				zap.Int("row", ev.Row),
				zap.Any("raw", ev.Raw),
				zap.String("reason", ev.Reason))
			if im.hook != nil {
				im.hook(ev)
			}
		}
		im.log.Debug("group imputed",
			zap.String("group", res.report.Key),
			zap.Int("size", res.report.Size),
			zap.Int("valid", res.report.Valid),
			zap.Int("filled", res.report.Filled))
	}
	return out, rep, nil
}

// processGroup works on fresh row copies only, so the input rows are never aliased.
func (im *Imputer) processGroup(t *table.Table, g group) groupResult {
	res := groupResult{
		rows:   make([]table.Row, len(g.rows)),
		report: GroupReport{Key: KeyString(g.key), Size: len(g.rows)},
	}
	nums := make([]float64, len(g.rows))
	valid := make([]bool, len(g.rows))
	var sum float64
	for i, idx := range g.rows {
		raw := t.Rows[idx][im.target]
		f, reason, ok := im.format.Coerce(raw)
		if ok {
			nums[i], valid[i] = f, true
			sum += f
			res.report.Valid++
			continue
		}
		if raw != nil {
			res.report.Coerced++
			res.events = append(res.events, CoercionEvent{Group: g.key, Row: idx, Raw: raw, Reason: reason})
		}
	}

	var mean float64
	if res.report.Valid > 0 {
		mean = sum / float64(res.report.Valid)
	}
	// +Inf and -Inf in one group sum to NaN, which is still missing.
	hasMean := res.report.Valid > 0 && !math.IsNaN(mean)
	// JSON cannot carry ±Inf; the Markdown report shows those groups as undefined.
	if hasMean && !math.IsInf(mean, 0) {
		m := mean
		res.report.Mean = &m
	}
	for i, idx := range g.rows {
		r := t.Rows[idx].Clone()
		switch {
		case valid[i]:
			r[im.target] = nums[i]
		case hasMean:
			r[im.target] = mean
			res.report.Filled++
		default:
			r[im.target] = nil
			res.report.Unfilled++
		}
		res.rows[i] = r
	}
	return res
}

// partition splits row indexes by group value in order of first appearance.
func partition(t *table.Table, column string) []group {
	var groups []group
	index := make(map[string]int)
	for i, r := range t.Rows {
		v := r[column]
		k := groupKey(v)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, group{key: v})
		}
		groups[gi].rows = append(groups[gi].rows, i)
	}
	return groups
}

// groupKey identifies a group by dynamic type and value, so 1 and "1" differ.
// nil and NaN share the missing group.
func groupKey(v any) string {
	if v == nil {
		return "\x00missing"
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return "\x00missing"
	}
	return fmt.Sprintf("%T\x00%v", v, v)
}

// KeyString renders a group value for reports and logs.
func KeyString(v any) string {
	if v == nil {
		return "(missing)"
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return "(missing)"
	}
	return table.FormatValue(v)
}
