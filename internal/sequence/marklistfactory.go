package sequence

import "github.com/LiangrunDa/seqfield/internal/core"

// MarkListFactory builds a normalized mark list. Plain Noops are folded into
// a running offset that is only materialized when content follows, and each
// pushed mark is merged into the previous one when they describe one
// contiguous effect.
type MarkListFactory struct {
	offset int
	list   MarkList
}

func NewMarkListFactory() *MarkListFactory {
	return &MarkListFactory{}
}

func (f *MarkListFactory) Push(marks ...Mark) {
	for _, mark := range marks {
		if mark.Count == 0 {
			continue
		}
		if isNoopMark(mark) && mark.CellID == nil && mark.Changes == nil {
			f.PushOffset(mark.Count)
		} else {
			f.PushContent(mark)
		}
	}
}

func (f *MarkListFactory) PushOffset(offset int) {
	f.offset += offset
}

func (f *MarkListFactory) PushContent(mark Mark) {
	if f.offset > 0 {
		f.list = append(f.list, Mark{Count: f.offset})
		f.offset = 0
	}
	if n := len(f.list); n > 0 {
		if merged, ok := tryMergeMarks(f.list[n-1], mark); ok {
			f.list[n-1] = merged
			return
		}
	}
	f.list = append(f.list, mark)
}

// List returns the marks pushed so far. A trailing offset is dropped.
func (f *MarkListFactory) List() MarkList {
	if f.list == nil {
		return MarkList{}
	}
	return f.list
}

func tryMergeMarks(lhs, rhs Mark) (Mark, bool) {
	if lhs.Type() != rhs.Type() {
		return Mark{}, false
	}
	if lhs.Changes != nil || rhs.Changes != nil {
		return Mark{}, false
	}
	if !areMergeableCellIds(lhs.CellID, lhs.Count, rhs.CellID) {
		return Mark{}, false
	}
	effect, ok := tryMergeEffects(effectOf(lhs), effectOf(rhs), lhs.Count)
	if !ok {
		return Mark{}, false
	}
	merged := lhs
	if lhs.Effect != nil {
		merged.Effect = effect
	}
	merged.Count = lhs.Count + rhs.Count
	return merged, true
}

func areMergeableCellIds(lhs *CellId, lhsCount int, rhs *CellId) bool {
	if lhs == nil || rhs == nil {
		return lhs == nil && rhs == nil
	}
	return lhs.Revision == rhs.Revision &&
		lhs.LocalID+core.ChangesetLocalID(lhsCount) == rhs.LocalID &&
		areSameLineage(lhs.Lineage, rhs.Lineage)
}

func areMergeableAtoms(lhs *core.ChangeAtomId, lhsCount int, rhs *core.ChangeAtomId) bool {
	if lhs == nil || rhs == nil {
		return lhs == nil && rhs == nil
	}
	return lhs.Revision == rhs.Revision && lhs.LocalID+core.ChangesetLocalID(lhsCount) == rhs.LocalID
}

func areSameLineage(lhs, rhs []LineageEvent) bool {
	if len(lhs) != len(rhs) {
		return false
	}
	for i := range lhs {
		if lhs[i] != rhs[i] {
			return false
		}
	}
	return true
}

func tryMergeEffects(lhs, rhs MarkEffect, lhsCount int) (MarkEffect, bool) {
	if lhs.Type() != rhs.Type() {
		return nil, false
	}
	switch l := lhs.(type) {
	case Noop:
		return l, true
	case AttachAndDetach:
		r := rhs.(AttachAndDetach)
		attach, ok := tryMergeEffects(l.Attach, r.Attach, lhsCount)
		if !ok {
			return nil, false
		}
		detach, ok := tryMergeEffects(l.Detach, r.Detach, lhsCount)
		if !ok {
			return nil, false
		}
		return AttachAndDetach{Attach: attach.(Attach), Detach: detach.(Detach)}, true
	case Insert:
		r := rhs.(Insert)
		return l, l.Revision == r.Revision && l.ID+MoveId(lhsCount) == r.ID
	case Remove:
		r := rhs.(Remove)
		return l, l.Revision == r.Revision && l.ID+MoveId(lhsCount) == r.ID &&
			areMergeableCellIds(l.IDOverride, lhsCount, r.IDOverride)
	case MoveIn:
		r := rhs.(MoveIn)
		return l, l.Revision == r.Revision && l.ID+MoveId(lhsCount) == r.ID &&
			areMergeableAtoms(l.FinalEndpoint, lhsCount, r.FinalEndpoint)
	case MoveOut:
		r := rhs.(MoveOut)
		return l, l.Revision == r.Revision && l.ID+MoveId(lhsCount) == r.ID &&
			areMergeableAtoms(l.FinalEndpoint, lhsCount, r.FinalEndpoint) &&
			areMergeableCellIds(l.IDOverride, lhsCount, r.IDOverride)
	default:
		unreachableCase(lhs)
		return nil, false
	}
}
