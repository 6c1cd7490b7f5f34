package sequence

import "github.com/LiangrunDa/seqfield/internal/core"

// ComposePair holds a base mark and a new mark that cover the same cells.
// Either may be a Noop synthesized for a mark the other changeset has no
// counterpart for. Both are nil once the queue is empty.
type ComposePair struct {
	BaseMark *Mark
	NewMark  *Mark
}

// ComposeQueue walks a base and a new mark list in lock-step.
type ComposeQueue struct {
	baseMarks            *MarkQueue
	newMarks             *MarkQueue
	baseMarksCellSources map[core.RevisionTag]bool
	newMarksCellSources  map[core.RevisionTag]bool
	ordering             CellOrderingMethod
	moveEffects          MoveEffectTable
	metadata             core.RevisionMetadataSource
}

func NewComposeQueue(
	base TaggedChangeset,
	next TaggedChangeset,
	ordering CellOrderingMethod,
	moveEffects MoveEffectTable,
	metadata core.RevisionMetadataSource,
) *ComposeQueue {
	return &ComposeQueue{
		baseMarks:            NewMarkQueue(base.Change, base.Revision, moveEffects),
		newMarks:             NewMarkQueue(next.Change, next.Revision, moveEffects),
		baseMarksCellSources: cellSourcesFromMarks(base.Change, base.Revision, getOutputCellId),
		newMarksCellSources:  cellSourcesFromMarks(next.Change, core.NoRevision, getInputCellId),
		ordering:             ordering,
		moveEffects:          moveEffects,
		metadata:             metadata,
	}
}

func (q *ComposeQueue) IsEmpty() bool {
	return q.baseMarks.IsEmpty() && q.newMarks.IsEmpty()
}

func (q *ComposeQueue) Pop() ComposePair {
	baseMark, hasBase := q.baseMarks.Peek()
	newMark, hasNew := q.newMarks.Peek()
	switch {
	case !hasBase && !hasNew:
		return ComposePair{}
	case !hasBase:
		return q.dequeueNew(infinity)
	case !hasNew:
		return q.dequeueBase(infinity)
	case areOutputCellsEmpty(baseMark) && areInputCellsEmpty(newMark):
		return q.popEmptyCells(baseMark, newMark)
	case areOutputCellsEmpty(baseMark):
		return q.dequeueBase(infinity)
	case areInputCellsEmpty(newMark):
		return q.dequeueNew(infinity)
	default:
		return q.dequeueBoth()
	}
}

// popEmptyCells aligns two marks that both refer to empty cells.
func (q *ComposeQueue) popEmptyCells(baseMark, newMark Mark) ComposePair {
	baseCellId := getOutputCellId(baseMark, q.baseMarks.Revision())
	assertInvariant(baseCellId != nil, "Expected defined output ID")

	if markEmptiesCells(baseMark) && !baseCellId.Revision.IsSet() {
		// Cells detached by a change without a revision can only be ordered
		// against new cells. Reattaching them needs a lineage that such a
		// change cannot produce.
		if !isNewAttach(newMark, q.newMarks.Revision()) {
			unsupported("reattaching cells detached by a change without a revision tag")
		}
		return q.dequeueNew(infinity)
	}

	switch q.ordering {
	case Tombstone:
		newCellId := getInputCellId(newMark, q.newMarks.Revision())
		assertInvariant(newCellId != nil, "Both marks should have cell IDs")
		comparison := compareCellPositionsUsingTombstones(
			baseCellId,
			newCellId,
			q.baseMarksCellSources,
			q.newMarksCellSources,
			q.metadata,
		)
		switch comparison {
		case SameCell:
			return q.dequeueBoth()
		case OldThenNew:
			return q.dequeueBase(infinity)
		case NewThenOld:
			return q.dequeueNew(infinity)
		default:
			fail("unknown cell order ", comparison)
		}
	case Lineage:
		cmp := compareCellPositions(baseCellId, baseMark.Count, newMark, q.newMarks.Revision(), q.metadata)
		switch {
		case cmp < 0:
			return q.dequeueBase(-cmp)
		case cmp > 0:
			return q.dequeueNew(cmp)
		default:
			return q.dequeueBoth()
		}
	default:
		fail("unknown cell ordering ", q.ordering)
	}
	return ComposePair{}
}

func (q *ComposeQueue) dequeueBase(length int) ComposePair {
	baseMark := q.baseMarks.DequeueUpTo(length)
	movedChanges := getMovedChangesFromMark(q.moveEffects, effectOf(baseMark), q.baseMarks.Revision())
	newMark := createNoopMark(baseMark.Count, movedChanges, getOutputCellId(baseMark, q.baseMarks.Revision()))
	return ComposePair{BaseMark: &baseMark, NewMark: &newMark}
}

func (q *ComposeQueue) dequeueNew(length int) ComposePair {
	newMark := q.newMarks.DequeueUpTo(length)
	baseMark := createNoopMark(newMark.Count, nil, getInputCellId(newMark, q.newMarks.Revision()))
	return ComposePair{BaseMark: &baseMark, NewMark: &newMark}
}

func (q *ComposeQueue) dequeueBoth() ComposePair {
	length := q.peekMinLength()
	baseMark := q.baseMarks.DequeueUpTo(length)
	newMark := q.newMarks.DequeueUpTo(length)
	if movedChanges := getMovedChangesFromMark(q.moveEffects, effectOf(baseMark), q.baseMarks.Revision()); movedChanges != nil {
		assertInvariant(newMark.Changes == nil, "Unexpected node changeset collision")
		newMark = withNodeChange(newMark, movedChanges)
	}
	return ComposePair{BaseMark: &baseMark, NewMark: &newMark}
}

func (q *ComposeQueue) peekMinLength() int {
	baseMark, hasBase := q.baseMarks.Peek()
	newMark, hasNew := q.newMarks.Peek()
	assertInvariant(hasBase && hasNew, "Cannot peek length unless both mark queues are non-empty")
	return min(baseMark.Count, newMark.Count)
}
