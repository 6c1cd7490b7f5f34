package sequence

import "github.com/LiangrunDa/seqfield/internal/core"

// Constructors for the common marks. Revisions may be left unset, in which
// case the revision of the changeset holding the mark applies.

func NewNoop(count int) Mark {
	return Mark{Count: count}
}

// NewModify changes the node in one filled cell.
func NewModify(change NodeChange) Mark {
	return Mark{Count: 1, Changes: change}
}

// NewInsert inserts count new nodes into cells created by this revision.
func NewInsert(count int, id MoveId, revision core.RevisionTag) Mark {
	return Mark{
		Count:  count,
		CellID: NewCellId(revision, int(id)),
		Effect: Insert{ID: id, Revision: revision},
	}
}

// NewRevive refills cells emptied by an earlier revision.
func NewRevive(count int, cellId *CellId, id MoveId, revision core.RevisionTag) Mark {
	return Mark{
		Count:  count,
		CellID: cellId,
		Effect: Insert{ID: id, Revision: revision},
	}
}

func NewRemove(count int, id MoveId, revision core.RevisionTag) Mark {
	return Mark{Count: count, Effect: Remove{ID: id, Revision: revision}}
}

func NewMoveOut(count int, id MoveId, revision core.RevisionTag) Mark {
	return Mark{Count: count, Effect: MoveOut{ID: id, Revision: revision}}
}

// NewMoveIn attaches the nodes of the move-out with the same id into new
// cells.
func NewMoveIn(count int, id MoveId, revision core.RevisionTag) Mark {
	return Mark{
		Count:  count,
		CellID: NewCellId(revision, int(id)),
		Effect: MoveIn{ID: id, Revision: revision},
	}
}

func NewAttachAndDetach(count int, cellId *CellId, attach Attach, detach Detach) Mark {
	return Mark{
		Count:  count,
		CellID: cellId,
		Effect: AttachAndDetach{Attach: attach, Detach: detach},
	}
}

func (m Mark) WithCellID(cellId *CellId) Mark {
	m.CellID = cellId
	return m
}

func (m Mark) WithChanges(change NodeChange) Mark {
	m.Changes = change
	return m
}

// WithIDOverride sets the identity the cells emptied by a detach take.
func (m Mark) WithIDOverride(id *CellId) Mark {
	switch effect := m.Effect.(type) {
	case Remove:
		effect.IDOverride = id
		m.Effect = effect
	case MoveOut:
		effect.IDOverride = id
		m.Effect = effect
	default:
		fail("only detaches have an id override, got ", m.Type())
	}
	return m
}

func (m Mark) WithFinalEndpoint(endpoint core.ChangeAtomId) Mark {
	switch effect := m.Effect.(type) {
	case moveEffect:
		m.Effect = effect.withFinalEndpoint(&endpoint)
	default:
		fail("only moves have a final endpoint, got ", m.Type())
	}
	return m
}
