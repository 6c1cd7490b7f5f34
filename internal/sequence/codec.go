package sequence

import (
	"encoding/json"
	"fmt"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/LiangrunDa/seqfield/internal/core"
)

// ExMark is the wire form of a mark. Effect fields are flattened into the
// mark; an AttachAndDetach carries its halves in Attach and Detach.
type ExMark struct {
	Type          string             `json:"type,omitempty"`
	Count         int                `json:"count,omitempty"`
	CellID        *CellId            `json:"cellId,omitempty"`
	Changes       json.RawMessage    `json:"changes,omitempty"`
	ID            *MoveId            `json:"id,omitempty"`
	Revision      *core.RevisionTag  `json:"revision,omitempty"`
	FinalEndpoint *core.ChangeAtomId `json:"finalEndpoint,omitempty"`
	IDOverride    *CellId            `json:"idOverride,omitempty"`
	Attach        *ExMark            `json:"attach,omitempty"`
	Detach        *ExMark            `json:"detach,omitempty"`
}

type ExChangeset struct {
	Revision core.RevisionTag `json:"revision"`
	Marks    []ExMark         `json:"marks"`
}

// ChildDecoder turns the wire form of a node change back into a NodeChange.
type ChildDecoder func(data json.RawMessage) (NodeChange, error)

func revisionRef(revision core.RevisionTag) *core.RevisionTag {
	if !revision.IsSet() {
		return nil
	}
	return &revision
}

func idRef(id MoveId) *MoveId {
	return &id
}

func ToExMark(mark Mark) (ExMark, error) {
	ex := exEffect(effectOf(mark))
	ex.Count = mark.Count
	ex.CellID = mark.CellID
	if mark.Changes != nil {
		bytes, err := json.Marshal(mark.Changes)
		if err != nil {
			return ExMark{}, fmt.Errorf("encode node change: %w", err)
		}
		ex.Changes = bytes
	}
	return ex, nil
}

func exEffect(effect MarkEffect) ExMark {
	switch e := effect.(type) {
	case Noop:
		return ExMark{}
	case Insert:
		return ExMark{Type: "Insert", ID: idRef(e.ID), Revision: revisionRef(e.Revision)}
	case MoveIn:
		return ExMark{Type: "MoveIn", ID: idRef(e.ID), Revision: revisionRef(e.Revision), FinalEndpoint: e.FinalEndpoint}
	case Remove:
		return ExMark{Type: "Remove", ID: idRef(e.ID), Revision: revisionRef(e.Revision), IDOverride: e.IDOverride}
	case MoveOut:
		return ExMark{Type: "MoveOut", ID: idRef(e.ID), Revision: revisionRef(e.Revision), FinalEndpoint: e.FinalEndpoint, IDOverride: e.IDOverride}
	case AttachAndDetach:
		attach := exEffect(e.Attach)
		detach := exEffect(e.Detach)
		return ExMark{Type: "AttachAndDetach", Attach: &attach, Detach: &detach}
	default:
		unreachableCase(effect)
		return ExMark{}
	}
}

func (ex ExMark) ToMark(decodeChild ChildDecoder) (Mark, error) {
	effect, err := ex.toEffect()
	if err != nil {
		return Mark{}, err
	}
	mark := Mark{Count: ex.Count, CellID: ex.CellID}
	if _, ok := effect.(Noop); !ok {
		mark.Effect = effect
	}
	if len(ex.Changes) > 0 {
		if decodeChild == nil {
			mark.Changes = ex.Changes
		} else if mark.Changes, err = decodeChild(ex.Changes); err != nil {
			return Mark{}, fmt.Errorf("decode node change: %w", err)
		}
	}
	return mark, nil
}

func (ex ExMark) toEffect() (MarkEffect, error) {
	var id MoveId
	if ex.ID != nil {
		id = *ex.ID
	}
	var revision core.RevisionTag
	if ex.Revision != nil {
		revision = *ex.Revision
	}
	switch ex.Type {
	case "", "Noop":
		return Noop{}, nil
	case "Insert":
		return Insert{ID: id, Revision: revision}, nil
	case "MoveIn":
		return MoveIn{ID: id, Revision: revision, FinalEndpoint: ex.FinalEndpoint}, nil
	case "Remove":
		return Remove{ID: id, Revision: revision, IDOverride: ex.IDOverride}, nil
	case "MoveOut":
		return MoveOut{ID: id, Revision: revision, FinalEndpoint: ex.FinalEndpoint, IDOverride: ex.IDOverride}, nil
	case "AttachAndDetach":
		if ex.Attach == nil || ex.Detach == nil {
			return nil, fmt.Errorf("AttachAndDetach without both halves")
		}
		attach, err := ex.Attach.toEffect()
		if err != nil {
			return nil, err
		}
		detach, err := ex.Detach.toEffect()
		if err != nil {
			return nil, err
		}
		a, ok := attach.(Attach)
		if !ok {
			return nil, fmt.Errorf("%v cannot be the attach half of AttachAndDetach", attach.Type())
		}
		d, ok := detach.(Detach)
		if !ok {
			return nil, fmt.Errorf("%v cannot be the detach half of AttachAndDetach", detach.Type())
		}
		return AttachAndDetach{Attach: a, Detach: d}, nil
	}
	return nil, errors.UnknownEffectError{Type: ex.Type}
}

func EncodeChangeset(change TaggedChangeset) ([]byte, error) {
	ex := ExChangeset{Revision: change.Revision, Marks: make([]ExMark, 0, len(change.Change))}
	for _, mark := range change.Change {
		exMark, err := ToExMark(mark)
		if err != nil {
			return nil, err
		}
		ex.Marks = append(ex.Marks, exMark)
	}
	return json.Marshal(ex)
}

// DecodeChangeset reads a changeset written by EncodeChangeset. Node changes
// are left as json.RawMessage when decodeChild is nil.
func DecodeChangeset(data []byte, decodeChild ChildDecoder) (TaggedChangeset, error) {
	var ex ExChangeset
	if err := json.Unmarshal(data, &ex); err != nil {
		return TaggedChangeset{}, err
	}
	marks := make(Changeset, 0, len(ex.Marks))
	for i, exMark := range ex.Marks {
		mark, err := exMark.ToMark(decodeChild)
		if err != nil {
			return TaggedChangeset{}, fmt.Errorf("mark %v: %w", i, err)
		}
		marks = append(marks, mark)
	}
	if err := Validate(marks); err != nil {
		return TaggedChangeset{}, err
	}
	return core.Tagged(ex.Revision, marks), nil
}
