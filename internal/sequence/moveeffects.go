package sequence

import (
	"reflect"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/LiangrunDa/seqfield/internal/crossfield"
)

// MoveEffect is what a compose pass learns about a range of move ids.
// Endpoints are relative to the first id of the range they were stored for.
type MoveEffect struct {
	// Endpoint is the net opposite end of the move.
	Endpoint *core.ChangeAtomId
	// TruncatedEndpoint overrides Endpoint once part of a chained move has
	// cancelled out.
	TruncatedEndpoint *core.ChangeAtomId
	// TruncatedEndpointForInner is the endpoint seen by the inner half of a
	// rename that replaced the start of the move.
	TruncatedEndpointForInner *core.ChangeAtomId
	// ModifyAfter is a node change that must ride along with the moved node.
	ModifyAfter NodeChange
}

// MoveEffectTable is the cross-field manager the compose pass works against.
type MoveEffectTable = crossfield.Manager[MoveEffect]

type rangeSplitter interface {
	SplitAt(target crossfield.Target, revision core.RevisionTag, id core.ChangesetLocalID)
}

// NewMoveEffectTable returns a table scoped to one compose call.
func NewMoveEffectTable() *crossfield.Table[MoveEffect] {
	return crossfield.NewTable(offsetMoveEffect, equalMoveEffects)
}

func offsetMoveEffect(effect MoveEffect, delta int) MoveEffect {
	if delta == 0 {
		return effect
	}
	return MoveEffect{
		Endpoint:                  offsetAtom(effect.Endpoint, delta),
		TruncatedEndpoint:         offsetAtom(effect.TruncatedEndpoint, delta),
		TruncatedEndpointForInner: offsetAtom(effect.TruncatedEndpointForInner, delta),
		ModifyAfter:               effect.ModifyAfter,
	}
}

func equalMoveEffects(a, b MoveEffect) bool {
	return reflect.DeepEqual(a, b)
}

func getMoveEffect(
	moveEffects MoveEffectTable,
	target crossfield.Target,
	revision core.RevisionTag,
	id MoveId,
	count int,
	addDependency bool,
) crossfield.RangeQueryResult[MoveEffect] {
	return moveEffects.Get(target, revision, id, count, addDependency)
}

func setMoveEffect(
	moveEffects MoveEffectTable,
	target crossfield.Target,
	revision core.RevisionTag,
	id MoveId,
	count int,
	effect MoveEffect,
) {
	moveEffects.Set(target, revision, id, count, effect, true)
}

// updateMoveEffect rewrites one field of the effects stored for
// [id, id+count), walking over however many entries the range spans. endpoint
// describes id and is offset for the later entries.
func updateMoveEffect(
	moveEffects MoveEffectTable,
	target crossfield.Target,
	id core.ChangeAtomId,
	count int,
	endpoint core.ChangeAtomId,
	update func(effect *MoveEffect, endpoint core.ChangeAtomId),
) {
	for count > 0 {
		result := getMoveEffect(moveEffects, target, id.Revision, id.LocalID, count, true)
		effect := result.Value
		if !result.Found {
			effect = MoveEffect{}
		}
		update(&effect, endpoint)
		setMoveEffect(moveEffects, target, id.Revision, id.LocalID, result.Length, effect)
		id = id.Offset(result.Length)
		endpoint = endpoint.Offset(result.Length)
		count -= result.Length
	}
}

func setEndpoint(moveEffects MoveEffectTable, target crossfield.Target, id core.ChangeAtomId, count int, endpoint core.ChangeAtomId) {
	updateMoveEffect(moveEffects, target, id, count, endpoint, func(effect *MoveEffect, value core.ChangeAtomId) {
		effect.Endpoint = &value
	})
}

func setTruncatedEndpoint(moveEffects MoveEffectTable, target crossfield.Target, id core.ChangeAtomId, count int, endpoint core.ChangeAtomId) {
	updateMoveEffect(moveEffects, target, id, count, endpoint, func(effect *MoveEffect, value core.ChangeAtomId) {
		effect.TruncatedEndpoint = &value
	})
}

func setTruncatedEndpointForInner(moveEffects MoveEffectTable, target crossfield.Target, id core.ChangeAtomId, count int, endpoint core.ChangeAtomId) {
	updateMoveEffect(moveEffects, target, id, count, endpoint, func(effect *MoveEffect, value core.ChangeAtomId) {
		effect.TruncatedEndpointForInner = &value
	})
}

// getComposedEndpoint expects the range to have been split on effect
// boundaries already.
func getComposedEndpoint(moveEffects MoveEffectTable, target crossfield.Target, revision core.RevisionTag, id MoveId, count int) *core.ChangeAtomId {
	result := getMoveEffect(moveEffects, target, revision, id, count, true)
	assertInvariant(result.Length == count, "Expected effect to cover entire mark")
	if !result.Found {
		return nil
	}
	if result.Value.TruncatedEndpoint != nil {
		return result.Value.TruncatedEndpoint
	}
	return result.Value.Endpoint
}

func getTruncatedEndpointForInner(moveEffects MoveEffectTable, target crossfield.Target, revision core.RevisionTag, id MoveId, count int) *core.ChangeAtomId {
	result := getMoveEffect(moveEffects, target, revision, id, count, true)
	assertInvariant(result.Length == count, "Expected effect to cover entire mark")
	if !result.Found {
		return nil
	}
	return result.Value.TruncatedEndpointForInner
}

func getModifyAfter(moveEffects MoveEffectTable, revision core.RevisionTag, id MoveId) NodeChange {
	result := getMoveEffect(moveEffects, crossfield.Source, revision, id, 1, true)
	if !result.Found {
		return nil
	}
	return result.Value.ModifyAfter
}

func setModifyAfter(moveEffects MoveEffectTable, source core.ChangeAtomId, modifyAfter NodeChange) {
	result := getMoveEffect(moveEffects, crossfield.Source, source.Revision, source.LocalID, 1, false)
	effect := result.Value
	if !result.Found {
		effect = MoveEffect{}
	}
	effect.ModifyAfter = modifyAfter
	setMoveEffect(moveEffects, crossfield.Source, source.Revision, source.LocalID, 1, effect)
}

// getMovedChangesFromMark returns the node change recorded for nodes that a
// base move-out sends somewhere the new changeset modifies them.
func getMovedChangesFromMark(moveEffects MoveEffectTable, effect MarkEffect, revision core.RevisionTag) NodeChange {
	switch e := effect.(type) {
	case AttachAndDetach:
		return getMovedChangesFromMark(moveEffects, e.Detach, revision)
	case MoveOut:
		return getModifyAfter(moveEffects, e.Revision.Or(revision), e.ID)
	default:
		return nil
	}
}

// withUpdatedEndpoint refreshes the final endpoint of a move effect from what
// the table knows about its range.
func withUpdatedEndpoint(effect MarkEffect, count int, revision core.RevisionTag, moveEffects MoveEffectTable) MarkEffect {
	switch e := effect.(type) {
	case AttachAndDetach:
		return AttachAndDetach{
			Attach: withUpdatedEndpoint(e.Attach, count, revision, moveEffects).(Attach),
			Detach: withUpdatedEndpoint(e.Detach, count, revision, moveEffects).(Detach),
		}
	case moveEffect:
		id, rev := e.atom()
		finalDest := getComposedEndpoint(moveEffects, getCrossFieldTargetFromMove(e), rev.Or(revision), id, count)
		if finalDest == nil {
			return effect
		}
		return changeFinalEndpoint(e, *finalDest)
	default:
		return effect
	}
}

func withUpdatedMarkEndpoint(mark Mark, count int, revision core.RevisionTag, moveEffects MoveEffectTable) Mark {
	if mark.Effect == nil {
		return mark
	}
	mark.Effect = withUpdatedEndpoint(mark.Effect, count, revision, moveEffects)
	return mark
}

// changeFinalEndpoint drops the endpoint when it points back at the move itself.
func changeFinalEndpoint(effect moveEffect, endpoint core.ChangeAtomId) moveEffect {
	id, rev := effect.atom()
	if endpoint == core.NewChangeAtomId(rev, int(id)) {
		return effect.withFinalEndpoint(nil)
	}
	return effect.withFinalEndpoint(&endpoint)
}

// moveEffectLength is how many cells from the start of the mark share the
// same move effects.
func moveEffectLength(effect MarkEffect, count int, revision core.RevisionTag, moveEffects MoveEffectTable) int {
	switch e := effect.(type) {
	case AttachAndDetach:
		return min(
			moveEffectLength(e.Attach, count, revision, moveEffects),
			moveEffectLength(e.Detach, count, revision, moveEffects),
		)
	case moveEffect:
		id, rev := e.atom()
		return getMoveEffect(moveEffects, getCrossFieldTargetFromMove(e), rev.Or(revision), id, count, false).Length
	default:
		return count
	}
}

func splitMoveEffectRanges(effect MarkEffect, revision core.RevisionTag, offset int, moveEffects MoveEffectTable) {
	splitter, ok := moveEffects.(rangeSplitter)
	if !ok {
		return
	}
	switch e := effect.(type) {
	case AttachAndDetach:
		splitMoveEffectRanges(e.Attach, revision, offset, moveEffects)
		splitMoveEffectRanges(e.Detach, revision, offset, moveEffects)
	case moveEffect:
		id, rev := e.atom()
		splitter.SplitAt(getCrossFieldTargetFromMove(e), rev.Or(revision), id+MoveId(offset))
	}
}
