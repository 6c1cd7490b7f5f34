package sequence

import (
	"math"

	"github.com/LiangrunDa/seqfield/internal/core"
)

// infinity stands for "all of the cells" in cell position comparisons whose
// outcome is known only from revision order, not from an exact offset.
const infinity = math.MaxInt

type CellOrder uint8

const (
	SameCell CellOrder = iota
	OldThenNew
	NewThenOld
)

func (o CellOrder) String() string {
	switch o {
	case SameCell:
		return "SameCell"
	case OldThenNew:
		return "OldThenNew"
	case NewThenOld:
		return "NewThenOld"
	}
	return ""
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func areOverlappingIdRanges(id1 core.ChangesetLocalID, count1 int, id2 core.ChangesetLocalID, count2 int) bool {
	return id1 < id2+core.ChangesetLocalID(count2) && id2 < id1+core.ChangesetLocalID(count1)
}

// compareCellsFromSameRevision orders two cell ranges detached by the same
// revision when they overlap. The result is the id distance between their
// first cells.
func compareCellsFromSameRevision(cell1 *CellId, count1 int, cell2 *CellId, count2 int) (int, bool) {
	assertInvariant(cell1.Revision == cell2.Revision, "Expected cells from the same revision")
	if areOverlappingIdRanges(cell1.LocalID, count1, cell2.LocalID, count2) {
		return int(cell1.LocalID) - int(cell2.LocalID), true
	}
	return 0, false
}

// getOffsetInCellRange looks for a lineage event recorded against the given
// revision and id range and returns where the cell sat relative to the first
// cell of that range.
func getOffsetInCellRange(lineage []LineageEvent, revision core.RevisionTag, id core.ChangesetLocalID, count int) (int, bool) {
	for _, event := range lineage {
		if event.Revision == revision && areOverlappingIdRanges(id, count, event.ID, event.Count) {
			return int(event.ID) + event.Offset - int(id), true
		}
	}
	return 0, false
}

// compareLineages returns a negative number when cell1 is known to precede
// cell2, a positive one when it follows, and zero when the lineages share no
// event.
func compareLineages(cell1, cell2 *CellId) int {
	type position struct {
		id     core.ChangesetLocalID
		count  int
		offset int
	}
	events := make(map[core.RevisionTag]position)
	for _, event := range cell1.Lineage {
		events[event.Revision] = position{event.ID, event.Count, event.Offset}
	}
	for i := len(cell2.Lineage) - 1; i >= 0; i-- {
		event := cell2.Lineage[i]
		other, ok := events[event.Revision]
		if !ok || !areOverlappingIdRanges(other.id, other.count, event.ID, event.Count) {
			continue
		}
		p1 := int(other.id) + other.offset
		p2 := int(event.ID) + event.Offset
		if p1 != p2 {
			return sign(p1 - p2)
		}
	}
	return 0
}

// compareCellPositions returns a number N which encodes how the cells of the
// two marks are aligned.
//   - zero: the first cell of the base range is the first cell of newMark.
//   - positive: the first N cells of newMark (all of them if N exceeds its
//     count) come before the first base cell.
//   - negative: the first -N base cells come before the first cell of newMark.
func compareCellPositions(
	baseCellId *CellId,
	baseCount int,
	newMark Mark,
	newRevision core.RevisionTag,
	metadata core.RevisionMetadataSource,
) int {
	newCellId := getInputCellId(newMark, newRevision)
	assertInvariant(newCellId != nil, "Should have cell ID")
	if baseCellId.Revision == newCellId.Revision {
		if cmp, ok := compareCellsFromSameRevision(baseCellId, baseCount, newCellId, newMark.Count); ok {
			return cmp
		}
	}

	if offsetInBase, ok := getOffsetInCellRange(baseCellId.Lineage, newCellId.Revision, newCellId.LocalID, newMark.Count); ok {
		if offsetInBase > 0 {
			return offsetInBase
		}
		return -infinity
	}

	if offsetInNew, ok := getOffsetInCellRange(newCellId.Lineage, baseCellId.Revision, baseCellId.LocalID, baseCount); ok {
		if offsetInNew > 0 {
			return -offsetInNew
		}
		return infinity
	}

	if cmp := compareLineages(baseCellId, newCellId); cmp != 0 {
		return sign(cmp) * infinity
	}

	assertInvariant(baseCellId.Revision.IsSet() && newCellId.Revision.IsSet(), "Cells should have defined revisions")

	if baseCellId.Revision == newCellId.Revision {
		// Disjoint ranges detached by one revision keep their id order.
		return sign(int(baseCellId.LocalID)-int(newCellId.LocalID)) * infinity
	}

	if !isNewAttach(newMark, newRevision) {
		// newMark targets a cell detached inside the composition window, so
		// the base changeset has a mark for it further on.
		return -infinity
	}

	newIndex, ok := metadata.GetIndex(newCellId.Revision)
	assertInvariant(ok, "A cell from a new attach should have a defined revision index")
	if baseIndex, ok := metadata.GetIndex(baseCellId.Revision); ok && baseIndex > newIndex {
		return -infinity
	}
	return infinity
}

// compareCellPositionsUsingTombstones orders two empty cells using the
// revisions each changeset holds tombstones for. A changeset that knows about
// a revision has a mark for every cell of that revision, so a cell it knows of
// but has not reached yet must come later.
func compareCellPositionsUsingTombstones(
	oldCell *CellId,
	newCell *CellId,
	oldChangeKnowledge map[core.RevisionTag]bool,
	newChangeKnowledge map[core.RevisionTag]bool,
	metadata core.RevisionMetadataSource,
) CellOrder {
	if areEqualCellIds(oldCell, newCell) {
		return SameCell
	}
	oldKnowsNew := oldChangeKnowledge[newCell.Revision]
	newKnowsOld := newChangeKnowledge[oldCell.Revision]
	if oldKnowsNew && newKnowsOld {
		if oldCell.Revision == newCell.Revision {
			if oldCell.LocalID < newCell.LocalID {
				return OldThenNew
			}
			return NewThenOld
		}
		assertInvariant(!oldCell.Revision.IsSet(), "Both changesets cannot hold tombstones for each other's cells")
		return NewThenOld
	}
	if newKnowsOld {
		return NewThenOld
	}
	if oldKnowsNew {
		return OldThenNew
	}

	newIndex, ok := metadata.GetIndex(newCell.Revision)
	assertInvariant(ok, "A cell unknown to the base changeset should have a revision index")
	if oldIndex, ok := metadata.GetIndex(oldCell.Revision); ok && oldIndex > newIndex {
		return OldThenNew
	}
	return NewThenOld
}
