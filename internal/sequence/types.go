// Package sequence implements the changeset algebra of sequence fields:
// marks describing edits to an ordered collection, and the composition of
// two sequential changesets into one.
package sequence

import (
	"fmt"
	"strings"

	"github.com/LiangrunDa/seqfield/internal/core"
)

type MoveId = core.ChangesetLocalID

// NodeChange is an opaque handle to changes nested under the node occupying
// a cell. This package never looks inside it; nil means "no change".
type NodeChange interface{}

// NodeChangeComposer composes nested node changes. Either argument may be nil
// but never both.
type NodeChangeComposer func(base, new NodeChange) NodeChange

// LineageEvent records that a cell was adjacent to cells detached by another
// revision, so that cells detached outside the composition window can still
// be ordered.
type LineageEvent struct {
	Revision core.RevisionTag      `json:"revision"`
	ID       core.ChangesetLocalID `json:"id"`
	Count    int                   `json:"count"`
	Offset   int                   `json:"offset"`
}

type CellId struct {
	core.ChangeAtomId
	Lineage []LineageEvent `json:"lineage,omitempty"`
}

func NewCellId(revision core.RevisionTag, localId int) *CellId {
	return &CellId{ChangeAtomId: core.NewChangeAtomId(revision, localId)}
}

func (c *CellId) String() string {
	if c == nil {
		return "<nil>"
	}
	if len(c.Lineage) == 0 {
		return c.ChangeAtomId.String()
	}
	return fmt.Sprintf("%v%v", c.ChangeAtomId, c.Lineage)
}

type EffectType uint8

const (
	NoopType EffectType = iota
	InsertType
	MoveInType
	RemoveType
	MoveOutType
	AttachAndDetachType
)

func (t EffectType) String() string {
	switch t {
	case NoopType:
		return "Noop"
	case InsertType:
		return "Insert"
	case MoveInType:
		return "MoveIn"
	case RemoveType:
		return "Remove"
	case MoveOutType:
		return "MoveOut"
	case AttachAndDetachType:
		return "AttachAndDetach"
	}
	return ""
}

// MarkEffect is the sealed set of effects a mark can have on its cells:
// Noop, Insert, MoveIn, Remove, MoveOut and AttachAndDetach.
type MarkEffect interface {
	Type() EffectType
	sealed()
}

// Attach is an effect that fills empty cells: Insert or MoveIn.
type Attach interface {
	MarkEffect
	attach()
}

// Detach is an effect that empties filled cells: Remove or MoveOut.
type Detach interface {
	MarkEffect
	detach()
}

// Noop leaves cell occupancy unchanged. A Noop mark that carries node changes
// is a modify.
type Noop struct{}

// Insert fills empty cells with nodes, either new ones or revived ones.
type Insert struct {
	ID       MoveId
	Revision core.RevisionTag
}

type MoveIn struct {
	ID       MoveId
	Revision core.RevisionTag
	// FinalEndpoint is the net source of the nodes after chained moves.
	FinalEndpoint *core.ChangeAtomId
}

type Remove struct {
	ID       MoveId
	Revision core.RevisionTag
	// IDOverride, when set, is the identity the emptied cells take.
	IDOverride *CellId
}

type MoveOut struct {
	ID            MoveId
	Revision      core.RevisionTag
	FinalEndpoint *core.ChangeAtomId
	IDOverride    *CellId
}

// AttachAndDetach is an attach immediately undone by a detach on the same
// cells, i.e. a cell rename. It is how transient moves are represented.
type AttachAndDetach struct {
	Attach Attach
	Detach Detach
}

func (Noop) Type() EffectType            { return NoopType }
func (Insert) Type() EffectType          { return InsertType }
func (MoveIn) Type() EffectType          { return MoveInType }
func (Remove) Type() EffectType          { return RemoveType }
func (MoveOut) Type() EffectType         { return MoveOutType }
func (AttachAndDetach) Type() EffectType { return AttachAndDetachType }

func (Noop) sealed()            {}
func (Insert) sealed()          {}
func (MoveIn) sealed()          {}
func (Remove) sealed()          {}
func (MoveOut) sealed()         {}
func (AttachAndDetach) sealed() {}

func (Insert) attach()  {}
func (MoveIn) attach()  {}
func (Remove) detach()  {}
func (MoveOut) detach() {}

// Mark describes the effect of a changeset on Count consecutive cells of the
// field as it was before the changeset.
type Mark struct {
	Count int
	// CellID identifies the input cells when they are empty, and is nil when
	// they are occupied.
	CellID  *CellId
	Changes NodeChange
	// Effect is nil for a Noop.
	Effect MarkEffect
}

// MarkList is the ordered list of marks of a changeset.
type MarkList = []Mark

type Changeset = MarkList

type TaggedChangeset = core.TaggedChange[Changeset]

func effectOf(mark Mark) MarkEffect {
	if mark.Effect == nil {
		return Noop{}
	}
	return mark.Effect
}

func (m Mark) Type() EffectType {
	return effectOf(m).Type()
}

func (m Mark) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v x%v", m.Type(), m.Count)
	switch effect := effectOf(m).(type) {
	case Noop:
	case Insert:
		fmt.Fprintf(&b, " id=%v", core.NewChangeAtomId(effect.Revision, int(effect.ID)))
	case MoveIn:
		fmt.Fprintf(&b, " id=%v", core.NewChangeAtomId(effect.Revision, int(effect.ID)))
		if effect.FinalEndpoint != nil {
			fmt.Fprintf(&b, " from=%v", *effect.FinalEndpoint)
		}
	case Remove:
		fmt.Fprintf(&b, " id=%v", core.NewChangeAtomId(effect.Revision, int(effect.ID)))
		if effect.IDOverride != nil {
			fmt.Fprintf(&b, " as=%v", effect.IDOverride)
		}
	case MoveOut:
		fmt.Fprintf(&b, " id=%v", core.NewChangeAtomId(effect.Revision, int(effect.ID)))
		if effect.FinalEndpoint != nil {
			fmt.Fprintf(&b, " to=%v", *effect.FinalEndpoint)
		}
	case AttachAndDetach:
		fmt.Fprintf(&b, " [%v]", Mark{Count: m.Count, Effect: effect.Attach})
		fmt.Fprintf(&b, "[%v]", Mark{Count: m.Count, Effect: effect.Detach})
	default:
		unreachableCase(effect)
	}
	if m.CellID != nil {
		fmt.Fprintf(&b, " cell=%v", m.CellID)
	}
	if m.Changes != nil {
		fmt.Fprintf(&b, " changes=%v", m.Changes)
	}
	return b.String()
}

// FormatMarks renders marks on one line for logs and failure messages.
func FormatMarks(marks MarkList) string {
	parts := make([]string, len(marks))
	for i, mark := range marks {
		parts[i] = "{" + mark.String() + "}"
	}
	return strings.Join(parts, " ")
}
