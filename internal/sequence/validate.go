package sequence

import (
	"fmt"

	"github.com/LiangrunDa/seqfield/errors"
)

// Validate checks the structural rules every changeset follows. It does not
// check that the changeset applies to any particular state.
func Validate(change Changeset) error {
	for i, mark := range change {
		if reason := validateMark(mark); reason != "" {
			return errors.InvalidChangesetError{MarkIndex: i, Reason: reason}
		}
	}
	return nil
}

func validateMark(mark Mark) string {
	if mark.Count <= 0 {
		return fmt.Sprintf("count must be positive, got %v", mark.Count)
	}
	if mark.Changes != nil && mark.Count != 1 {
		return "a mark with node changes must have a count of one"
	}
	if mark.CellID != nil && mark.CellID.LocalID < 0 {
		return "negative cell id"
	}
	switch effect := effectOf(mark).(type) {
	case Noop:
	case Insert:
		if mark.CellID == nil {
			return "an insert must name the empty cells it fills"
		}
		return validateId(effect)
	case MoveIn:
		if mark.CellID == nil {
			return "a move-in must name the empty cells it fills"
		}
		if mark.Changes != nil {
			return "changes to moved nodes belong on the move-out"
		}
		return validateId(effect)
	case Remove:
		return validateId(effect)
	case MoveOut:
		return validateId(effect)
	case AttachAndDetach:
		if mark.CellID == nil {
			return "an attach and detach must name the empty cells it renames"
		}
		if effect.Attach == nil || effect.Detach == nil {
			return "an attach and detach needs both halves"
		}
		if msg := validateId(effect.Attach.(identified)); msg != "" {
			return msg
		}
		return validateId(effect.Detach.(identified))
	default:
		return fmt.Sprintf("unknown effect %T", effect)
	}
	return ""
}

func validateId(effect identified) string {
	if id, _ := effect.atom(); id < 0 {
		return fmt.Sprintf("negative id %v on %v", id, effect.Type())
	}
	return ""
}
