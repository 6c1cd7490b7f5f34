package sequence

import (
	"testing"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		change  Changeset
		invalid int
	}{
		{"empty", Changeset{}, -1},
		{"well formed", Changeset{NewNoop(2), NewInsert(1, 0, tag1), NewModify("x"), NewMoveOut(2, 1, tag1), NewMoveIn(2, 1, tag1)}, -1},
		{"zero count", Changeset{NewNoop(1), NewNoop(0)}, 1},
		{"changes on a long mark", Changeset{NewRemove(2, 0, tag1).WithChanges("x")}, 0},
		{"insert without cell", Changeset{{Count: 1, Effect: Insert{Revision: tag1}}}, 0},
		{"move-in with changes", Changeset{NewMoveIn(1, 0, tag1).WithChanges("x")}, 0},
		{"negative id", Changeset{NewRemove(1, -1, tag1)}, 0},
		{"negative cell id", Changeset{{Count: 1, CellID: NewCellId(tag1, -2)}}, 0},
		{"attach and detach without cell", Changeset{{Count: 1, Effect: AttachAndDetach{Attach: Insert{}, Detach: Remove{}}}}, 0},
		{"attach and detach with one half", Changeset{NewAttachAndDetach(1, NewCellId(tag1, 0), MoveIn{}, nil)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.change)
			if tt.invalid < 0 {
				assert.NoError(t, err)
				return
			}
			var target errors.InvalidChangesetError
			if assert.ErrorAs(t, err, &target) {
				assert.Equal(t, tt.invalid, target.MarkIndex)
				assert.NotEmpty(t, target.Reason)
			}
		})
	}
}
