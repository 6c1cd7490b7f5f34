package sequence

import (
	"fmt"
	"testing"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		change   TaggedChangeset
		expected []any
	}{
		{
			name:     "insert",
			state:    NewState("a", "b").WithBuilds(tag1, 0, "x", "y"),
			change:   core.Tagged(tag1, Changeset{NewNoop(1), NewInsert(2, 0, tag1)}),
			expected: []any{"a", "x", "y", "b"},
		},
		{
			name:     "insert with revisions from the changeset",
			state:    NewState("a").WithBuilds(tag1, 0, "x"),
			change:   core.Tagged(tag1, Changeset{NewInsert(1, 0, core.NoRevision)}),
			expected: []any{"x", "a"},
		},
		{
			name:     "remove",
			state:    NewState("a", "b", "c"),
			change:   core.Tagged(tag1, Changeset{NewNoop(1), NewRemove(1, 0, tag1)}),
			expected: []any{"a", "c"},
		},
		{
			name:     "move forward",
			state:    NewState("a", "b", "c"),
			change:   core.Tagged(tag1, Changeset{NewMoveOut(1, 0, tag1), NewNoop(1), NewMoveIn(1, 0, tag1)}),
			expected: []any{"b", "a", "c"},
		},
		{
			name:     "move backward",
			state:    NewState("a", "b", "c"),
			change:   core.Tagged(tag1, Changeset{NewMoveIn(1, 0, tag1), NewNoop(2), NewMoveOut(1, 0, tag1)}),
			expected: []any{"c", "a", "b"},
		},
		{
			name:     "modify",
			state:    NewState("a", "b", "c"),
			change:   core.Tagged(tag1, Changeset{NewNoop(1), NewModify("!")}),
			expected: []any{"a", "b!", "c"},
		},
		{
			name:     "modify a moved node",
			state:    NewState("a", "b"),
			change:   core.Tagged(tag1, Changeset{NewMoveOut(1, 0, tag1).WithChanges("!"), NewNoop(1), NewMoveIn(1, 0, tag1)}),
			expected: []any{"b", "a!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(tt.state, tt.change, appendChange)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Nodes())
		})
	}
}

func TestApplyKeepsEmptyCells(t *testing.T) {
	state := NewState("a", "b")
	removed, err := Apply(state, core.Tagged(tag1, Changeset{NewRemove(1, 0, tag1)}), appendChange)
	require.NoError(t, err)

	assert.Equal(t, []Cell{{ID: atom(tag1, 0)}, {Node: "b", Filled: true}}, removed.Cells)
	assert.Equal(t, map[core.ChangeAtomId]any{atom(tag1, 0): "a"}, removed.Detached)
	assert.Equal(t, []any{"a", "b"}, state.Nodes())

	revived, err := Apply(removed, core.Tagged(tag2, Changeset{NewRevive(1, NewCellId(tag1, 0), 0, tag2)}), appendChange)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, revived.Nodes())
	assert.Empty(t, revived.Detached)
}

func TestApplyRevivesBetweenEmptyCells(t *testing.T) {
	state := applyAll(t, NewState("a", "b", "c"),
		core.Tagged(tag1, Changeset{NewRemove(3, 0, tag1)}),
	)
	require.Empty(t, state.Nodes())

	revived := applyAll(t, state,
		core.Tagged(tag2, Changeset{{Count: 1, CellID: NewCellId(tag1, 0)}, NewRevive(1, NewCellId(tag1, 1), 0, tag2)}),
	)
	assert.Equal(t, []any{"b"}, revived.Nodes())
	assert.Len(t, revived.Cells, 3)
}

func TestApplyErrors(t *testing.T) {
	t.Run("out of bounds", func(t *testing.T) {
		_, err := Apply(NewState("a", "b"), core.Tagged(tag1, Changeset{NewRemove(3, 0, tag1)}), appendChange)
		var target errors.ApplyOutOfBoundsError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, errors.ApplyOutOfBoundsError{MarkIndex: 0, Needed: 1}, target)
	})

	t.Run("missing node", func(t *testing.T) {
		_, err := Apply(NewState("a"), core.Tagged(tag1, Changeset{NewInsert(1, 0, tag1)}), appendChange)
		var target errors.DetachedNodeNotFoundError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("invalid changeset", func(t *testing.T) {
		_, err := Apply(NewState("a"), core.Tagged(tag1, Changeset{NewNoop(0)}), appendChange)
		var target errors.InvalidChangesetError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("node change fails", func(t *testing.T) {
		failing := func(node any, change NodeChange) (any, error) {
			return nil, fmt.Errorf("cannot apply %v to %v", change, node)
		}
		_, err := Apply(NewState("a"), core.Tagged(tag1, Changeset{NewModify("!")}), failing)
		assert.EqualError(t, err, "cannot apply ! to a")
	})
}
