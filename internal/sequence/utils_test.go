package sequence

import (
	"testing"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestSplitMark(t *testing.T) {
	tests := []struct {
		name          string
		mark          Mark
		length        int
		first, second Mark
	}{
		{
			name:   "noop",
			mark:   NewNoop(5),
			length: 2,
			first:  NewNoop(2),
			second: NewNoop(3),
		},
		{
			name:   "empty cells",
			mark:   Mark{Count: 3, CellID: NewCellId(tag1, 4)},
			length: 1,
			first:  Mark{Count: 1, CellID: NewCellId(tag1, 4)},
			second: Mark{Count: 2, CellID: NewCellId(tag1, 5)},
		},
		{
			name:   "move-out with endpoint",
			mark:   NewMoveOut(3, 0, tag1).WithFinalEndpoint(atom(tag2, 4)),
			length: 1,
			first:  NewMoveOut(1, 0, tag1).WithFinalEndpoint(atom(tag2, 4)),
			second: NewMoveOut(2, 1, tag1).WithFinalEndpoint(atom(tag2, 5)),
		},
		{
			name:   "remove with id override",
			mark:   NewRemove(4, 2, tag2).WithIDOverride(NewCellId(tag1, 0)),
			length: 3,
			first:  NewRemove(3, 2, tag2).WithIDOverride(NewCellId(tag1, 0)),
			second: NewRemove(1, 5, tag2).WithIDOverride(NewCellId(tag1, 3)),
		},
		{
			name:   "attach and detach",
			mark:   NewAttachAndDetach(2, NewCellId(tag1, 0), MoveIn{ID: 0, Revision: tag1}, Remove{ID: 6, Revision: tag2}),
			length: 1,
			first:  NewAttachAndDetach(1, NewCellId(tag1, 0), MoveIn{ID: 0, Revision: tag1}, Remove{ID: 6, Revision: tag2}),
			second: NewAttachAndDetach(1, NewCellId(tag1, 1), MoveIn{ID: 1, Revision: tag1}, Remove{ID: 7, Revision: tag2}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second := splitMark(tt.mark, tt.length)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.second, second)

			merged, ok := tryMergeMarks(first, second)
			assert.True(t, ok)
			assert.Equal(t, tt.mark, merged)
		})
	}
}

func TestSplitMarkRejectsBadLengths(t *testing.T) {
	assert.Panics(t, func() { splitMark(NewNoop(2), 0) })
	assert.Panics(t, func() { splitMark(NewNoop(2), 2) })
}

func TestCellEffects(t *testing.T) {
	tests := []struct {
		name        string
		mark        Mark
		inputEmpty  bool
		outputEmpty bool
	}{
		{"noop", NewNoop(1), false, false},
		{"noop over empty cells", Mark{Count: 1, CellID: NewCellId(tag1, 0)}, true, true},
		{"insert", NewInsert(1, 0, tag1), true, false},
		{"remove", NewRemove(1, 0, tag1), false, true},
		{"move-out", NewMoveOut(1, 0, tag1), false, true},
		{"move-in", NewMoveIn(1, 0, tag1), true, false},
		{"attach and detach", NewAttachAndDetach(1, NewCellId(tag1, 0), Insert{}, Remove{}), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inputEmpty, areInputCellsEmpty(tt.mark))
			assert.Equal(t, tt.outputEmpty, areOutputCellsEmpty(tt.mark))
			assert.Equal(t, tt.inputEmpty != tt.outputEmpty, markHasCellEffect(tt.mark))
		})
	}
}

func TestGetOutputCellId(t *testing.T) {
	assert.Nil(t, getOutputCellId(NewInsert(1, 0, tag1), tag1))
	assert.Equal(t, NewCellId(tag2, 3), getOutputCellId(NewRemove(1, 3, core.NoRevision), tag2))
	assert.Equal(t, NewCellId(tag1, 0), getOutputCellId(NewMoveOut(1, 3, tag2).WithIDOverride(NewCellId(tag1, 0)), tag2))
	assert.Equal(t, NewCellId(tag3, 1), getOutputCellId(Mark{Count: 1, CellID: NewCellId(core.NoRevision, 1)}, tag3))
}

func TestSettleMark(t *testing.T) {
	// Reviving cells that are already filled has no effect.
	assert.Equal(t, NewNoop(2), settleMark(Mark{Count: 2, Effect: Insert{ID: 0, Revision: tag1}}, tag1))

	// Removing empty cells without renaming them has no effect either.
	emptied := NewRemove(1, 0, tag1).WithCellID(NewCellId(tag1, 0))
	assert.Equal(t, Mark{Count: 1, CellID: NewCellId(tag1, 0)}, settleMark(emptied, tag1))

	renamed := NewRemove(1, 0, tag2).WithCellID(NewCellId(tag1, 0))
	assert.Equal(t, renamed, settleMark(renamed, tag2))
	assert.True(t, isImpactfulCellRename(renamed, tag2))

	insert := NewInsert(1, 0, tag1)
	assert.Equal(t, insert, settleMark(insert, tag1))
	assert.True(t, isNewAttach(insert, tag1))
	assert.False(t, isNewAttach(NewRevive(1, NewCellId(tag2, 0), 0, tag1), tag1))
}

func TestWithRevision(t *testing.T) {
	mark := NewAttachAndDetach(1, NewCellId(core.NoRevision, 0), MoveIn{ID: 0}, Remove{ID: 1, Revision: tag2})
	expected := NewAttachAndDetach(1, NewCellId(tag1, 0), MoveIn{ID: 0, Revision: tag1}, Remove{ID: 1, Revision: tag2})
	assert.Equal(t, expected, withRevision(mark, tag1))
	assert.Equal(t, mark, withRevision(mark, core.NoRevision))
}
