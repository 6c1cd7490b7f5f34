package sequence

import (
	"testing"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/stretchr/testify/require"
)

var (
	tag1 = core.NewRevisionTag()
	tag2 = core.NewRevisionTag()
	tag3 = core.NewRevisionTag()
	tag4 = core.NewRevisionTag()
)

// Node changes in tests are strings appended to string nodes.
func concatChanges(base, next NodeChange) NodeChange {
	switch {
	case base == nil:
		return next
	case next == nil:
		return base
	}
	return base.(string) + next.(string)
}

func appendChange(node any, change NodeChange) (any, error) {
	return node.(string) + change.(string), nil
}

func atom(revision core.RevisionTag, id int) core.ChangeAtomId {
	return core.NewChangeAtomId(revision, id)
}

// composeTagged runs compose until the move effect table settles.
func composeTagged(t *testing.T, ordering CellOrderingMethod, change1, change2 TaggedChangeset, revisions ...core.RevisionTag) Changeset {
	t.Helper()
	if len(revisions) == 0 {
		revisions = []core.RevisionTag{change1.Revision, change2.Revision}
	}
	metadata := core.NewRevisionIndex(revisions...)
	composer := NewComposer(Config{CellOrdering: ordering})
	table := NewMoveEffectTable()
	for pass := 0; pass < 8; pass++ {
		result := composer.Compose(change1, change2, concatChanges, core.NewIDAllocator(0), table, metadata)
		if !table.Invalidated() {
			return result
		}
		table.ResetInvalidation()
	}
	require.FailNow(t, "move effects did not settle")
	return nil
}

func compose(t *testing.T, change1, change2 TaggedChangeset, revisions ...core.RevisionTag) Changeset {
	t.Helper()
	return composeTagged(t, Tombstone, change1, change2, revisions...)
}

func applyAll(t *testing.T, state State, changes ...TaggedChangeset) State {
	t.Helper()
	for _, change := range changes {
		var err error
		state, err = Apply(state, change, appendChange)
		require.NoError(t, err, FormatMarks(change.Change))
	}
	return state
}
