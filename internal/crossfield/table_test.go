package crossfield

import (
	"testing"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpoint values shift with the id they describe, like move endpoints do.
func newEndpointTable() *Table[core.ChangeAtomId] {
	return NewTable(
		func(v core.ChangeAtomId, delta int) core.ChangeAtomId { return v.Offset(delta) },
		func(a, b core.ChangeAtomId) bool { return a == b },
	)
}

func TestGetOnEmptyTable(t *testing.T) {
	table := newEndpointTable()
	result := table.Get(Source, core.NewRevisionTag(), 0, 5, false)
	assert.False(t, result.Found)
	assert.Equal(t, 5, result.Length)
}

func TestSetThenGetWholeRange(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	dest := core.NewChangeAtomId(core.NewRevisionTag(), 10)
	table.Set(Source, rev, 2, 3, dest, true)

	result := table.Get(Source, rev, 2, 3, false)
	require.True(t, result.Found)
	assert.Equal(t, 3, result.Length)
	assert.Equal(t, dest, result.Value)

	// Other target and other revision are separate keys.
	assert.False(t, table.Get(Destination, rev, 2, 3, false).Found)
	assert.False(t, table.Get(Source, core.NewRevisionTag(), 2, 3, false).Found)
}

func TestGetReportsGapBeforeEntry(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	table.Set(Source, rev, 4, 2, core.NewChangeAtomId(rev, 100), true)

	result := table.Get(Source, rev, 0, 10, false)
	assert.False(t, result.Found)
	assert.Equal(t, 4, result.Length)

	result = table.Get(Source, rev, 0, 3, false)
	assert.False(t, result.Found)
	assert.Equal(t, 3, result.Length)
}

func TestGetInsideEntryOffsetsValue(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	dest := core.NewChangeAtomId(rev, 100)
	table.Set(Destination, rev, 0, 4, dest, true)

	result := table.Get(Destination, rev, 2, 5, false)
	require.True(t, result.Found)
	assert.Equal(t, 2, result.Length)
	assert.Equal(t, dest.Offset(2), result.Value)
}

func TestPartialOverwriteSplitsEntries(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	a := core.NewChangeAtomId(rev, 100)
	b := core.NewChangeAtomId(rev, 500)
	table.Set(Source, rev, 0, 6, a, true)
	table.Set(Source, rev, 2, 2, b, true)
	assert.Equal(t, 3, table.Len())

	first := table.Get(Source, rev, 0, 6, false)
	assert.Equal(t, RangeQueryResult[core.ChangeAtomId]{Value: a, Found: true, Length: 2}, first)
	middle := table.Get(Source, rev, 2, 4, false)
	assert.Equal(t, RangeQueryResult[core.ChangeAtomId]{Value: b, Found: true, Length: 2}, middle)
	last := table.Get(Source, rev, 4, 2, false)
	assert.Equal(t, RangeQueryResult[core.ChangeAtomId]{Value: a.Offset(4), Found: true, Length: 2}, last)
}

func TestOverwriteSpanningSeveralEntries(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	table.Set(Source, rev, 0, 2, core.NewChangeAtomId(rev, 10), true)
	table.Set(Source, rev, 3, 2, core.NewChangeAtomId(rev, 20), true)
	table.Set(Source, rev, 1, 3, core.NewChangeAtomId(rev, 30), true)

	assert.Equal(t, core.NewChangeAtomId(rev, 10), table.Get(Source, rev, 0, 1, false).Value)
	result := table.Get(Source, rev, 1, 10, false)
	assert.Equal(t, 3, result.Length)
	assert.Equal(t, core.NewChangeAtomId(rev, 30), result.Value)
	assert.Equal(t, core.NewChangeAtomId(rev, 21), table.Get(Source, rev, 4, 1, false).Value)
	assert.Equal(t, 3, table.Len())
}

func TestSplitAt(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	table.Set(Source, rev, 0, 4, core.NewChangeAtomId(rev, 8), true)
	table.SplitAt(Source, rev, 1)
	table.SplitAt(Source, rev, 0)
	table.SplitAt(Source, rev, 9)
	assert.Equal(t, 2, table.Len())
	result := table.Get(Source, rev, 0, 4, false)
	assert.Equal(t, 1, result.Length)
	result = table.Get(Source, rev, 1, 4, false)
	assert.Equal(t, 3, result.Length)
	assert.Equal(t, core.NewChangeAtomId(rev, 9), result.Value)
}

func TestInvalidationOnlyForReadRanges(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	table.Get(Source, rev, 0, 2, true)

	table.Set(Source, rev, 5, 1, core.NewChangeAtomId(rev, 1), true)
	assert.False(t, table.Invalidated(), "write outside the read range")

	table.Set(Source, rev, 1, 1, core.NewChangeAtomId(rev, 1), false)
	assert.False(t, table.Invalidated(), "write without invalidation")

	table.Set(Source, rev, 1, 2, core.NewChangeAtomId(rev, 3), true)
	assert.True(t, table.Invalidated())

	table.ResetInvalidation()
	assert.False(t, table.Invalidated())
	assert.Equal(t, 2, table.Len(), "facts survive a reset")
}

func TestRewritingSameValueDoesNotInvalidate(t *testing.T) {
	table := newEndpointTable()
	rev := core.NewRevisionTag()
	value := core.NewChangeAtomId(rev, 40)
	table.Set(Destination, rev, 0, 4, value, true)
	table.Get(Destination, rev, 0, 4, true)

	table.Set(Destination, rev, 2, 2, value.Offset(2), true)
	assert.False(t, table.Invalidated())

	table.Set(Destination, rev, 2, 2, value, true)
	assert.True(t, table.Invalidated())
}

func TestEmptyRangePanics(t *testing.T) {
	table := newEndpointTable()
	assert.Panics(t, func() { table.Get(Source, core.NoRevision, 0, 0, false) })
	assert.Panics(t, func() { table.Set(Source, core.NoRevision, 0, 0, core.ChangeAtomId{}, false) })
}
