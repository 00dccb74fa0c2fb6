package impute

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/KaramelBytes/groupfill-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockTable() *table.Table {
	t := table.New("material", "plant", "qty_final")
	t.Append("X", "P1", "5")
	t.Append("Y", "P1", "10")
	t.Append("X", "P2", "bad")
	return t
}

func targetValues(t *table.Table) []any {
	vals, _ := t.Column(DefaultTargetColumn)
	return vals
}

func TestCleanEndToEnd(t *testing.T) {
	out, err := Clean(stockTable(), DefaultGroupColumn, DefaultTargetColumn)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"material", "plant", "qty_final"}, out.Columns)

	// X rows come first (first appearance), then Y.
	mats, _ := out.Column("material")
	assert.Equal(t, []any{"X", "X", "Y"}, mats)
	plants, _ := out.Column("plant")
	assert.Equal(t, []any{"P1", "P2", "P1"}, plants)
	assert.Equal(t, []any{5.0, 5.0, 10.0}, targetValues(out))
}

func TestGroupMeanFillsUnparseableAndMissing(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("M", 10)
	tb.Append("M", "20")
	tb.Append("M", "x")
	tb.Append("M", nil)

	out, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	assert.Equal(t, []any{10.0, 20.0, 15.0, 15.0}, targetValues(out))

	require.Len(t, rep.Groups, 1)
	g := rep.Groups[0]
	assert.Equal(t, "M", g.Key)
	assert.Equal(t, 4, g.Size)
	assert.Equal(t, 2, g.Valid)
	assert.Equal(t, 1, g.Coerced) // nil is missing, not coerced
	assert.Equal(t, 2, g.Filled)
	require.NotNil(t, g.Mean)
	assert.Equal(t, 15.0, *g.Mean)
	assert.Empty(t, rep.Warnings)
}

func TestAllMissingGroupStaysMissing(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("A", "a")
	tb.Append("B", "3")
	tb.Append("A", "b")

	out, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil, 3.0}, targetValues(out))

	require.Len(t, rep.Groups, 2)
	assert.Nil(t, rep.Groups[0].Mean)
	assert.Equal(t, 2, rep.Groups[0].Unfilled)
	assert.Equal(t, 2, rep.Unfilled)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "material=A has no numeric qty_final values")
}

func TestOpposingInfinitiesLeaveGroupMissing(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("A", "inf")
	tb.Append("A", "-inf")
	tb.Append("A", "x")
	tb.Append("B", "1e400")
	tb.Append("B", nil)

	out, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	vals := targetValues(out)
	assert.True(t, math.IsInf(vals[0].(float64), 1))
	assert.True(t, math.IsInf(vals[1].(float64), -1))
	assert.Nil(t, vals[2])
	assert.True(t, math.IsInf(vals[4].(float64), 1))

	a, b := rep.Groups[0], rep.Groups[1]
	assert.Nil(t, a.Mean)
	assert.Equal(t, 0, a.Filled)
	assert.Equal(t, 1, a.Unfilled)
	assert.Nil(t, b.Mean)
	assert.Equal(t, 1, b.Filled)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "material=A has an undefined qty_final mean")
}

func TestMissingColumnIsSchemaError(t *testing.T) {
	for _, cols := range [][2]string{{"mat", "qty_final"}, {"material", "qty"}} {
		out, rep, err := New(cols[0], cols[1]).Run(context.Background(), stockTable())
		var se *table.SchemaError
		require.True(t, errors.As(err, &se), "got %v", err)
		assert.Nil(t, out)
		assert.Nil(t, rep)
	}

	_, err := Clean(table.New(), "material", "qty_final")
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "material", se.Column)
}

func TestNilAndEmptyTables(t *testing.T) {
	_, err := Clean(nil, "material", "qty_final")
	require.ErrorIs(t, err, ErrNilTable)

	out, err := Clean(table.New("material", "qty_final"), "material", "qty_final")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"material", "qty_final"}, out.Columns)
}

func TestInputIsNotMutated(t *testing.T) {
	in := stockTable()
	before := in.Clone()
	out, err := Clean(in, "material", "qty_final")
	require.NoError(t, err)
	assert.Equal(t, before, in)

	out.Rows[0]["plant"] = "changed"
	assert.Equal(t, "P1", in.Rows[0]["plant"])
}

func TestIdempotentOnNumericInput(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("A", "1")
	tb.Append("B", "x")
	tb.Append("A", "")
	tb.Append("A", "4")
	tb.Append("B", "y")

	once, err := Clean(tb, "material", "qty_final")
	require.NoError(t, err)
	var events int
	twice, _, err := New("material", "qty_final", WithCoercionHook(func(CoercionEvent) { events++ })).
		Run(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Zero(t, events)
}

func TestRowsPreservedPerGroup(t *testing.T) {
	tb := table.New("material", "batch", "qty_final")
	mats := []string{"A", "B", "C", "A", "C", "B", "A"}
	for i, m := range mats {
		tb.Append(m, i, []any{"1", "n/a", 3.5, "", nil, "2", "oops"}[i])
	}
	out, err := Clean(tb, "material", "qty_final")
	require.NoError(t, err)
	require.Equal(t, tb.Len(), out.Len())

	collect := func(x *table.Table) map[string][]any {
		m := map[string][]any{}
		for _, r := range x.Rows {
			k := r["material"].(string)
			m[k] = append(m[k], r["batch"])
		}
		return m
	}
	assert.Equal(t, collect(tb), collect(out))
}

func TestMissingGroupValuesFormOneGroup(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append(nil, "2")
	tb.Append("A", "1")
	tb.Append(math.NaN(), "bad")

	out, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []any{2.0, 2.0, 1.0}, targetValues(out))
	assert.Equal(t, "(missing)", rep.Groups[0].Key)
}

func TestGroupKeysDistinguishTypes(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append(1, "10")
	tb.Append("1", "x")
	_, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	require.Len(t, rep.Groups, 2)
	assert.Nil(t, rep.Groups[1].Mean)
}

func TestParallelMatchesSequential(t *testing.T) {
	tb := table.New("material", "qty_final")
	for i := 0; i < 500; i++ {
		var v any = float64(i % 13)
		if i%7 == 0 {
			v = "bad"
		}
		tb.Append(string(rune('A'+i%17)), v)
	}
	seq, seqRep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	par, parRep, err := New("material", "qty_final", WithWorkers(8)).Run(context.Background(), tb)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
	assert.Equal(t, seqRep.Groups, parRep.Groups)
}

func TestCoercionHookOrderAndReasons(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("B", "none")
	tb.Append("A", "??")
	tb.Append("B", "")
	tb.Append("A", nil)

	var got []CoercionEvent
	_, rep, err := New("material", "qty_final", WithWorkers(4), WithCoercionHook(func(ev CoercionEvent) {
		got = append(got, ev)
	})).Run(context.Background(), tb)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, CoercionEvent{Group: "B", Row: 0, Raw: "none", Reason: ReasonNullMarker}, got[0])
	assert.Equal(t, CoercionEvent{Group: "B", Row: 2, Raw: "", Reason: ReasonEmpty}, got[1])
	assert.Equal(t, CoercionEvent{Group: "A", Row: 1, Raw: "??", Reason: ReasonNotNumeric}, got[2])
	assert.Equal(t, 3, rep.Coerced)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New("material", "qty_final").Run(ctx, stockTable())
	require.ErrorIs(t, err, context.Canceled)
	_, _, err = New("material", "qty_final", WithWorkers(2)).Run(ctx, stockTable())
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocaleNumberFormat(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("A", "1.000,5")
	tb.Append("A", "")
	tb.Append("A", "2.000,5")
	out, _, err := New("material", "qty_final",
		WithNumberFormat(NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'})).
		Run(context.Background(), tb)
	require.NoError(t, err)
	assert.Equal(t, []any{1000.5, 1500.5, 2000.5}, targetValues(out))
}

func TestReportMarkdown(t *testing.T) {
	tb := table.New("material", "qty_final")
	tb.Append("X", "5")
	tb.Append("X", "bad")
	tb.Append("Z", "oops")
	_, rep, err := New("material", "qty_final").Run(context.Background(), tb)
	require.NoError(t, err)
	rep.Source = "stock.csv"
	md := rep.Markdown()
	assert.Contains(t, md, "[CLEANING SUMMARY]")
	assert.Contains(t, md, "File: stock.csv")
	assert.Contains(t, md, "Groups: 2 (by material)")
	assert.Contains(t, md, "- material=X (n=2): valid 1, coerced 1, filled 1; mean 5")
	assert.Contains(t, md, "- material=Z (n=1): valid 0, coerced 1; mean undefined")
	assert.Contains(t, md, "[NOTES]")
	assert.NotEmpty(t, rep.RunID)
}
