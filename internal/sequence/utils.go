package sequence

import (
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/LiangrunDa/seqfield/internal/crossfield"
)

// identified effects carry the (revision, id) atom that names the cells they
// create or the nodes they detach.
type identified interface {
	MarkEffect
	atom() (MoveId, core.RevisionTag)
	withRevision(revision core.RevisionTag) MarkEffect
	offsetBy(offset int) MarkEffect
}

// moveEffect is implemented by MoveIn and MoveOut.
type moveEffect interface {
	identified
	finalEndpoint() *core.ChangeAtomId
	withFinalEndpoint(endpoint *core.ChangeAtomId) moveEffect
}

func (e Insert) atom() (MoveId, core.RevisionTag)  { return e.ID, e.Revision }
func (e MoveIn) atom() (MoveId, core.RevisionTag)  { return e.ID, e.Revision }
func (e Remove) atom() (MoveId, core.RevisionTag)  { return e.ID, e.Revision }
func (e MoveOut) atom() (MoveId, core.RevisionTag) { return e.ID, e.Revision }

func (e Insert) withRevision(revision core.RevisionTag) MarkEffect {
	e.Revision = e.Revision.Or(revision)
	return e
}

func (e MoveIn) withRevision(revision core.RevisionTag) MarkEffect {
	e.Revision = e.Revision.Or(revision)
	return e
}

func (e Remove) withRevision(revision core.RevisionTag) MarkEffect {
	e.Revision = e.Revision.Or(revision)
	return e
}

func (e MoveOut) withRevision(revision core.RevisionTag) MarkEffect {
	e.Revision = e.Revision.Or(revision)
	return e
}

func (e Insert) offsetBy(offset int) MarkEffect {
	e.ID += MoveId(offset)
	return e
}

func (e MoveIn) offsetBy(offset int) MarkEffect {
	e.ID += MoveId(offset)
	e.FinalEndpoint = offsetAtom(e.FinalEndpoint, offset)
	return e
}

func (e Remove) offsetBy(offset int) MarkEffect {
	e.ID += MoveId(offset)
	e.IDOverride = offsetCellId(e.IDOverride, offset)
	return e
}

func (e MoveOut) offsetBy(offset int) MarkEffect {
	e.ID += MoveId(offset)
	e.FinalEndpoint = offsetAtom(e.FinalEndpoint, offset)
	e.IDOverride = offsetCellId(e.IDOverride, offset)
	return e
}

func (e MoveIn) finalEndpoint() *core.ChangeAtomId  { return e.FinalEndpoint }
func (e MoveOut) finalEndpoint() *core.ChangeAtomId { return e.FinalEndpoint }

func (e MoveIn) withFinalEndpoint(endpoint *core.ChangeAtomId) moveEffect {
	e.FinalEndpoint = endpoint
	return e
}

func (e MoveOut) withFinalEndpoint(endpoint *core.ChangeAtomId) moveEffect {
	e.FinalEndpoint = endpoint
	return e
}

func offsetAtom(id *core.ChangeAtomId, offset int) *core.ChangeAtomId {
	if id == nil {
		return nil
	}
	shifted := id.Offset(offset)
	return &shifted
}

func offsetCellId(id *CellId, offset int) *CellId {
	if id == nil {
		return nil
	}
	return &CellId{ChangeAtomId: id.ChangeAtomId.Offset(offset), Lineage: id.Lineage}
}

func isNoopMark(mark Mark) bool {
	return mark.Type() == NoopType
}

func isAttach(effect MarkEffect) bool {
	_, ok := effect.(Attach)
	return ok
}

func isDetach(effect MarkEffect) bool {
	_, ok := effect.(Detach)
	return ok
}

func isMoveIn(effect MarkEffect) bool {
	_, ok := effect.(MoveIn)
	return ok
}

func isMoveOut(effect MarkEffect) bool {
	_, ok := effect.(MoveOut)
	return ok
}

func isMoveMark(effect MarkEffect) bool {
	return isMoveIn(effect) || isMoveOut(effect)
}

func isAttachAndDetachEffect(effect MarkEffect) bool {
	_, ok := effect.(AttachAndDetach)
	return ok
}

func areInputCellsEmpty(mark Mark) bool {
	return mark.CellID != nil
}

func areOutputCellsEmpty(mark Mark) bool {
	switch effect := effectOf(mark).(type) {
	case Noop:
		return mark.CellID != nil
	case Insert, MoveIn:
		return false
	case Remove, MoveOut, AttachAndDetach:
		return true
	default:
		unreachableCase(effect)
		return false
	}
}

func markEmptiesCells(mark Mark) bool {
	return !areInputCellsEmpty(mark) && areOutputCellsEmpty(mark)
}

func markFillsCells(mark Mark) bool {
	return areInputCellsEmpty(mark) && !areOutputCellsEmpty(mark)
}

func markHasCellEffect(mark Mark) bool {
	return areInputCellsEmpty(mark) != areOutputCellsEmpty(mark)
}

func withCellRevision(cellId *CellId, revision core.RevisionTag) *CellId {
	if cellId == nil || cellId.Revision.IsSet() || !revision.IsSet() {
		return cellId
	}
	return &CellId{ChangeAtomId: cellId.ChangeAtomId.WithRevision(revision), Lineage: cellId.Lineage}
}

func getInputCellId(mark Mark, revision core.RevisionTag) *CellId {
	return withCellRevision(mark.CellID, revision)
}

func getDetachOutputId(detach Detach, revision core.RevisionTag) *CellId {
	switch effect := detach.(type) {
	case Remove:
		if effect.IDOverride != nil {
			return effect.IDOverride
		}
		return NewCellId(effect.Revision.Or(revision), int(effect.ID))
	case MoveOut:
		if effect.IDOverride != nil {
			return effect.IDOverride
		}
		return NewCellId(effect.Revision.Or(revision), int(effect.ID))
	default:
		unreachableCase(effect)
		return nil
	}
}

// getOutputCellId returns the identity of the cells after the mark, or nil
// when the mark leaves them filled.
func getOutputCellId(mark Mark, revision core.RevisionTag) *CellId {
	switch effect := effectOf(mark).(type) {
	case Remove:
		return getDetachOutputId(effect, revision)
	case MoveOut:
		return getDetachOutputId(effect, revision)
	case AttachAndDetach:
		return getDetachOutputId(effect.Detach, revision)
	case Insert, MoveIn:
		return nil
	case Noop:
		return getInputCellId(mark, revision)
	default:
		unreachableCase(effect)
		return nil
	}
}

func areEqualCellIds(a, b *CellId) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ChangeAtomId == b.ChangeAtomId
}

func isNewAttach(mark Mark, revision core.RevisionTag) bool {
	return isNewAttachEffect(effectOf(mark), mark.CellID, revision)
}

// isNewAttachEffect reports whether the effect attaches into cells that were
// created by the same revision, as opposed to reviving older cells.
func isNewAttachEffect(effect MarkEffect, cellId *CellId, revision core.RevisionTag) bool {
	switch e := effect.(type) {
	case Insert:
		return cellId != nil && e.Revision.Or(revision) == cellId.Revision.Or(revision)
	case MoveIn:
		return cellId != nil && e.Revision.Or(revision) == cellId.Revision.Or(revision)
	case AttachAndDetach:
		return isNewAttachEffect(e.Attach, cellId, revision)
	default:
		return false
	}
}

// isImpactful reports whether the mark changes anything about its cells,
// leaving node changes aside.
func isImpactful(mark Mark, revision core.RevisionTag) bool {
	switch effect := effectOf(mark).(type) {
	case Noop:
		return false
	case Remove:
		if !areInputCellsEmpty(mark) {
			return true
		}
		return !areEqualCellIds(getOutputCellId(mark, revision), getInputCellId(mark, revision))
	case MoveOut, AttachAndDetach:
		return true
	case Insert, MoveIn:
		return areInputCellsEmpty(mark)
	default:
		unreachableCase(effect)
		return false
	}
}

func isImpactfulCellRename(mark Mark, revision core.RevisionTag) bool {
	effect := effectOf(mark)
	return (isAttachAndDetachEffect(effect) || isDetach(effect)) &&
		areInputCellsEmpty(mark) &&
		isImpactful(mark, revision)
}

// asAttachAndDetach expresses a cell rename as an explicit AttachAndDetach.
func asAttachAndDetach(mark Mark) (Mark, AttachAndDetach) {
	switch effect := effectOf(mark).(type) {
	case AttachAndDetach:
		return mark, effect
	case Remove:
		aad := AttachAndDetach{Attach: Insert{ID: effect.ID, Revision: effect.Revision}, Detach: effect}
		return Mark{Count: mark.Count, CellID: mark.CellID, Changes: mark.Changes, Effect: aad}, aad
	case MoveOut:
		aad := AttachAndDetach{Attach: Insert{ID: effect.ID, Revision: effect.Revision}, Detach: effect}
		return Mark{Count: mark.Count, CellID: mark.CellID, Changes: mark.Changes, Effect: aad}, aad
	default:
		fail("expected a cell rename, got ", mark.Type())
		return Mark{}, AttachAndDetach{}
	}
}

// normalizeCellRename drops an explicit attach that is not a move: a detach
// over empty cells already revives them implicitly.
func normalizeCellRename(mark Mark, aad AttachAndDetach) Mark {
	assertInvariant(mark.CellID != nil, "AttachAndDetach marks should have a cell ID")
	if !isMoveIn(aad.Attach) && !isMoveOut(aad.Detach) {
		return Mark{Count: mark.Count, CellID: mark.CellID, Changes: mark.Changes, Effect: aad.Detach}
	}
	mark.Effect = aad
	return mark
}

// settleMark replaces a mark that has no impact in the context it applies to
// with a Noop over the same cells.
func settleMark(mark Mark, revision core.RevisionTag) Mark {
	if isImpactful(mark, revision) {
		return mark
	}
	return createNoopMark(mark.Count, mark.Changes, getInputCellId(mark, revision))
}

func createNoopMark(count int, nodeChange NodeChange, cellId *CellId) Mark {
	mark := Mark{Count: count}
	if nodeChange != nil {
		assertInvariant(count == 1, "A mark with a node change must have length one")
		mark.Changes = nodeChange
	}
	mark.CellID = cellId
	return mark
}

func withRevision(mark Mark, revision core.RevisionTag) Mark {
	if !revision.IsSet() {
		return mark
	}
	if mark.Effect != nil {
		mark.Effect = addRevision(mark.Effect, revision)
	}
	mark.CellID = withCellRevision(mark.CellID, revision)
	return mark
}

func addRevision(effect MarkEffect, revision core.RevisionTag) MarkEffect {
	switch e := effect.(type) {
	case Noop:
		return e
	case AttachAndDetach:
		return AttachAndDetach{
			Attach: addRevision(e.Attach, revision).(Attach),
			Detach: addRevision(e.Detach, revision).(Detach),
		}
	case identified:
		return e.withRevision(revision)
	default:
		unreachableCase(effect)
		return nil
	}
}

func withNodeChange(mark Mark, change NodeChange) Mark {
	mark.Changes = change
	return mark
}

// getEndpoint returns the net opposite end of a move.
func getEndpoint(effect moveEffect, revision core.RevisionTag) core.ChangeAtomId {
	if endpoint := effect.finalEndpoint(); endpoint != nil {
		return *endpoint
	}
	id, rev := effect.atom()
	return core.NewChangeAtomId(rev.Or(revision), int(id))
}

func getMoveIn(mark Mark) (MoveIn, bool) {
	switch effect := effectOf(mark).(type) {
	case MoveIn:
		return effect, true
	case AttachAndDetach:
		moveIn, ok := effect.Attach.(MoveIn)
		return moveIn, ok
	default:
		return MoveIn{}, false
	}
}

func getCrossFieldTargetFromMove(effect moveEffect) crossfield.Target {
	switch effect.(type) {
	case MoveOut:
		return crossfield.Source
	case MoveIn:
		return crossfield.Destination
	default:
		unreachableCase(effect)
		return crossfield.Source
	}
}

type cellIdGetter func(mark Mark, revision core.RevisionTag) *CellId

// cellSourcesFromMarks collects the revisions whose cells the marks refer to.
func cellSourcesFromMarks(marks MarkList, revision core.RevisionTag, getter cellIdGetter) map[core.RevisionTag]bool {
	sources := make(map[core.RevisionTag]bool)
	for _, mark := range marks {
		if cellId := getter(mark, revision); cellId != nil {
			sources[cellId.Revision] = true
		}
	}
	return sources
}
