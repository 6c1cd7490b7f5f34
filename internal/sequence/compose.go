package sequence

import (
	"fmt"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/LiangrunDa/seqfield/internal/crossfield"
	"github.com/LiangrunDa/seqfield/internal/log"
	"github.com/sirupsen/logrus"
)

// Composer composes sequence changesets with a fixed cell ordering method.
// It holds no per-call state and may be shared between goroutines.
type Composer struct {
	ordering CellOrderingMethod
	logger   *logrus.Entry
}

func NewComposer(cfg Config) *Composer {
	return &Composer{
		ordering: cfg.CellOrdering,
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}
}

// WithLogger returns a copy of the composer that logs through entry.
func (c *Composer) WithLogger(entry *logrus.Entry) *Composer {
	return &Composer{ordering: c.ordering, logger: entry}
}

func (c *Composer) Ordering() CellOrderingMethod {
	return c.ordering
}

// Compose returns a changeset equivalent to applying change1 and then
// change2. Neither input is mutated, though parts of them may be shared with
// the output.
//
// Facts about moves are recorded in moveEffects. When moveEffects reports
// that a fact was read before being written, the caller must compose again
// with the same table until it no longer does.
//
// Known gaps: tombstones of cells detached outside the two changesets are not
// tracked, and slices are not supported.
func (c *Composer) Compose(
	change1 TaggedChangeset,
	change2 TaggedChangeset,
	composeChild NodeChangeComposer,
	_ core.IDAllocator,
	moveEffects MoveEffectTable,
	metadata core.RevisionMetadataSource,
) Changeset {
	return c.composeMarkLists(change1, change2, composeChild, moveEffects, metadata)
}

// Compose composes with the default configuration.
func Compose(
	change1 TaggedChangeset,
	change2 TaggedChangeset,
	composeChild NodeChangeComposer,
	genId core.IDAllocator,
	moveEffects MoveEffectTable,
	metadata core.RevisionMetadataSource,
) Changeset {
	return NewComposer(DefaultConfig()).Compose(change1, change2, composeChild, genId, moveEffects, metadata)
}

func (c *Composer) composeMarkLists(
	base TaggedChangeset,
	next TaggedChangeset,
	composeChild NodeChangeComposer,
	moveEffects MoveEffectTable,
	metadata core.RevisionMetadataSource,
) MarkList {
	baseRev, newRev := base.Revision, next.Revision
	factory := NewMarkListFactory()
	queue := NewComposeQueue(base, next, c.ordering, moveEffects, metadata)
	for !queue.IsEmpty() {
		pair := queue.Pop()
		if pair.NewMark == nil {
			assertInvariant(pair.BaseMark != nil, "Non-empty queue should not return two empty marks")
			factory.Push(composeMark(*pair.BaseMark, baseRev, moveEffects, func(change NodeChange) NodeChange {
				return composeChildChanges(change, nil, composeChild)
			}))
			continue
		}

		// Composed changesets are never rebased further, so intentions that
		// have no impact where they apply can be dropped.
		settledNewMark := settleMark(*pair.NewMark, newRev)
		if pair.BaseMark == nil {
			factory.Push(composeMark(settledNewMark, newRev, moveEffects, func(change NodeChange) NodeChange {
				return composeChildChanges(nil, change, composeChild)
			}))
			continue
		}

		// Both marks now cover the same cells of the intermediate state.
		settledBaseMark := settleMark(*pair.BaseMark, baseRev)
		assertInvariant(settledBaseMark.Count == settledNewMark.Count, "Aligned marks should have the same length")
		composed := composeMarks(baseRev, settledBaseMark, newRev, settledNewMark, composeChild, moveEffects)
		log.MinimalTracef(c.logger, "Composed mark %v", func() string {
			return fmt.Sprintf("{%v} + {%v} = {%v}", settledBaseMark, settledNewMark, composed)
		})
		factory.Push(composed)
	}
	return factory.List()
}

// composeMarks composes two marks where newMark applies to the output of
// baseMark.
func composeMarks(
	baseRev core.RevisionTag,
	baseMark Mark,
	newRev core.RevisionTag,
	newMark Mark,
	composeChild NodeChangeComposer,
	moveEffects MoveEffectTable,
) Mark {
	nodeChange := handleNodeChanges(baseMark, baseRev, newMark, composeChild, moveEffects)
	composed := composeMarksIgnoreChild(withRevision(baseMark, baseRev), withRevision(newMark, newRev), moveEffects)
	return withUpdatedMarkEndpoint(withNodeChange(composed, nodeChange), baseMark.Count, core.NoRevision, moveEffects)
}

func composeMarksIgnoreChild(baseMark, newMark Mark, moveEffects MoveEffectTable) Mark {
	if isImpactfulCellRename(newMark, core.NoRevision) {
		return composeWithNewRename(baseMark, newMark, moveEffects)
	}
	if isImpactfulCellRename(baseMark, core.NoRevision) {
		return composeWithBaseRename(baseMark, newMark, moveEffects)
	}

	switch {
	case !markHasCellEffect(baseMark) && !markHasCellEffect(newMark):
		if isNoopMark(baseMark) {
			return newMark
		}
		if isNoopMark(newMark) {
			return baseMark
		}
		return createNoopMark(newMark.Count, nil, getInputCellId(baseMark, core.NoRevision))
	case !markHasCellEffect(baseMark):
		return newMark
	case !markHasCellEffect(newMark):
		return baseMark
	case areInputCellsEmpty(baseMark):
		return composeAttachWithDetach(baseMark, newMark, moveEffects)
	default:
		// The new mark refills the cells the base empties, so the nodes end
		// where they started.
		return createNoopMark(baseMark.Count, nil, nil)
	}
}

// composeWithNewRename handles a new mark that renames empty cells.
func composeWithNewRename(baseMark, newMark Mark, moveEffects MoveEffectTable) Mark {
	newRenameMark, newRename := asAttachAndDetach(newMark)
	if markEmptiesCells(baseMark) {
		// The base detach cancels with the attach half of the rename, which
		// leaves only its detach half.
		detach := newRename.Detach
		if isMoveIn(newRename.Attach) && isMoveOut(newRename.Detach) {
			// Both changesets move these nodes: A to B in the base, then B
			// back to A and on to C in the new one. The composition moves
			// them from A to C directly. This is the mark at A; the marks at
			// B link the start of the base move with the end of the new one.
			baseMoveOut, ok := effectOf(baseMark).(MoveOut)
			assertInvariant(ok, "Unexpected mark type ", baseMark.Type())
			newMoveOut := detach.(MoveOut)
			newDetachId := core.NewChangeAtomId(newMoveOut.Revision, int(newMoveOut.ID))

			setTruncatedEndpointForInner(moveEffects, crossfield.Destination,
				getEndpoint(baseMoveOut, core.NoRevision), baseMark.Count, newDetachId)

			newEndpoint := getComposedEndpoint(moveEffects, crossfield.Source,
				baseMoveOut.Revision, baseMoveOut.ID, baseMark.Count)
			if newEndpoint != nil {
				detach = changeFinalEndpoint(newMoveOut, *newEndpoint).(MoveOut)
				setTruncatedEndpoint(moveEffects, crossfield.Destination, *newEndpoint, baseMark.Count, newDetachId)
			}
		}
		return Mark{Count: baseMark.Count, Effect: detach}
	}

	if isImpactfulCellRename(baseMark, core.NoRevision) {
		baseRenameMark, baseRename := asAttachAndDetach(baseMark)
		newOutputId := getOutputCellId(newRenameMark, core.NoRevision)
		if areEqualCellIds(newOutputId, baseRenameMark.CellID) {
			return Mark{Count: baseRenameMark.Count, CellID: baseRenameMark.CellID}
		}

		// The attach half of the new rename cancels with the detach half of
		// the base rename.
		return normalizeCellRename(
			Mark{Count: baseMark.Count, CellID: baseMark.CellID},
			AttachAndDetach{Attach: baseRename.Attach, Detach: newRename.Detach},
		)
	}

	return normalizeCellRename(newRenameMark, newRename)
}

// composeWithBaseRename handles a base mark that renames empty cells.
func composeWithBaseRename(baseMark, newMark Mark, moveEffects MoveEffectTable) Mark {
	baseRenameMark, baseRename := asAttachAndDetach(baseMark)
	if !markFillsCells(newMark) {
		assertInvariant(isNoopMark(newMark), "Unexpected mark type ", newMark.Type())
		return baseMark
	}

	attach := baseRename.Attach
	if isMoveIn(baseRename.Attach) && isMoveOut(baseRename.Detach) {
		newMoveIn, ok := effectOf(newMark).(MoveIn)
		assertInvariant(ok, "Unexpected mark type ", newMark.Type())
		baseMoveIn := attach.(MoveIn)
		originalAttachId := core.NewChangeAtomId(baseMoveIn.Revision, int(baseMoveIn.ID))

		setTruncatedEndpointForInner(moveEffects, crossfield.Source,
			getEndpoint(newMoveIn, core.NoRevision), baseRenameMark.Count, originalAttachId)

		newEndpoint := getComposedEndpoint(moveEffects, crossfield.Destination,
			newMoveIn.Revision, newMoveIn.ID, newMark.Count)
		if newEndpoint != nil {
			attach = changeFinalEndpoint(baseMoveIn, *newEndpoint).(MoveIn)
			setTruncatedEndpoint(moveEffects, crossfield.Source, *newEndpoint, baseMark.Count, originalAttachId)
		}
	}
	return Mark{Count: baseRenameMark.Count, CellID: baseRenameMark.CellID, Effect: attach}
}

// composeAttachWithDetach handles a base attach into empty cells followed by
// a detach of the same nodes.
func composeAttachWithDetach(baseMark, newMark Mark, moveEffects MoveEffectTable) Mark {
	attach, ok := effectOf(baseMark).(Attach)
	assertInvariant(ok, "Expected generative mark, got ", baseMark.Type())
	detach, ok := effectOf(newMark).(Detach)
	assertInvariant(ok, "Unexpected mark type ", newMark.Type())

	moveIn, attachIsMove := attach.(MoveIn)
	moveOut, detachIsMove := detach.(MoveOut)
	if attachIsMove && detachIsMove {
		count := baseMark.Count
		finalSource := getEndpoint(moveIn, core.NoRevision)
		finalDest := getEndpoint(moveOut, core.NoRevision)

		setEndpoint(moveEffects, crossfield.Source, finalSource, count, finalDest)
		if truncated := getTruncatedEndpointForInner(moveEffects, crossfield.Destination, moveIn.Revision, moveIn.ID, count); truncated != nil {
			setTruncatedEndpoint(moveEffects, crossfield.Destination, finalDest, count, *truncated)
		}

		setEndpoint(moveEffects, crossfield.Destination, finalDest, count, finalSource)
		if truncated := getTruncatedEndpointForInner(moveEffects, crossfield.Source, moveOut.Revision, moveOut.ID, count); truncated != nil {
			setTruncatedEndpoint(moveEffects, crossfield.Source, finalSource, count, *truncated)
		}

		// Final endpoints of the halves of a rename are never read.
		moveIn.FinalEndpoint = nil
		moveOut.FinalEndpoint = nil
		attach, detach = moveIn, moveOut
	}

	if areEqualCellIds(getOutputCellId(newMark, core.NoRevision), baseMark.CellID) {
		// The cells end up where they started.
		return Mark{Count: baseMark.Count, CellID: baseMark.CellID}
	}
	return normalizeCellRename(
		Mark{Count: baseMark.Count, CellID: baseMark.CellID},
		AttachAndDetach{Attach: attach, Detach: detach},
	)
}

func handleNodeChanges(
	baseMark Mark,
	baseRev core.RevisionTag,
	newMark Mark,
	composeChild NodeChangeComposer,
	moveEffects MoveEffectTable,
) NodeChange {
	if newMark.Changes != nil {
		// Changes to moved nodes belong with the move-out of the nodes.
		if baseSource, ok := getMoveIn(baseMark); ok {
			setModifyAfter(moveEffects, getEndpoint(baseSource, baseRev), newMark.Changes)
			return nil
		}
	}
	return composeChildChanges(baseMark.Changes, newMark.Changes, composeChild)
}

func composeChildChanges(baseChange, newChange NodeChange, composeChild NodeChangeComposer) NodeChange {
	if baseChange == nil && newChange == nil {
		return nil
	}
	return composeChild(baseChange, newChange)
}

// composeMark handles a mark the other changeset has no counterpart for.
func composeMark(mark Mark, revision core.RevisionTag, moveEffects MoveEffectTable, composeChild func(NodeChange) NodeChange) Mark {
	var nodeChange NodeChange
	if mark.Changes != nil {
		nodeChange = composeChild(mark.Changes)
	}
	updated := withUpdatedMarkEndpoint(mark, mark.Count, revision, moveEffects)
	return withNodeChange(withRevision(updated, revision), nodeChange)
}
