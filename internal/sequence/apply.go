package sequence

import (
	"github.com/LiangrunDa/seqfield/errors"
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/sirupsen/logrus"
)

// Cell is one slot of a field. An empty cell keeps the identity it was given
// when its node was detached.
type Cell struct {
	ID     core.ChangeAtomId
	Node   any
	Filled bool
}

// State is a field together with the nodes detached from it, keyed by the id
// they were detached under. Nodes about to be inserted are also kept in
// Detached, under the id of the cell their insert creates.
type State struct {
	Cells    []Cell
	Detached map[core.ChangeAtomId]any
}

func NewState(nodes ...any) State {
	cells := make([]Cell, len(nodes))
	for i, node := range nodes {
		cells[i] = Cell{Node: node, Filled: true}
	}
	return State{Cells: cells, Detached: make(map[core.ChangeAtomId]any)}
}

// WithBuilds returns a copy of s in which the nodes are ready to be inserted
// by the given revision, starting at local id firstId.
func (s State) WithBuilds(revision core.RevisionTag, firstId int, nodes ...any) State {
	out := s.clone()
	for i, node := range nodes {
		out.Detached[core.NewChangeAtomId(revision, firstId+i)] = node
	}
	return out
}

// Nodes lists the nodes of the filled cells in order.
func (s State) Nodes() []any {
	nodes := make([]any, 0, len(s.Cells))
	for _, cell := range s.Cells {
		if cell.Filled {
			nodes = append(nodes, cell.Node)
		}
	}
	return nodes
}

func (s State) clone() State {
	cells := make([]Cell, len(s.Cells))
	copy(cells, s.Cells)
	detached := make(map[core.ChangeAtomId]any, len(s.Detached))
	for k, v := range s.Detached {
		detached[k] = v
	}
	return State{Cells: cells, Detached: detached}
}

// NodeChangeApplier applies a nested node change to a node.
type NodeChangeApplier func(node any, change NodeChange) (any, error)

type pendingFill struct {
	cell      int
	source    core.ChangeAtomId
	changes   NodeChange
	markIndex int
}

type applier struct {
	input      []Cell
	cursor     int
	output     []Cell
	detached   map[core.ChangeAtomId]any
	aliases    map[core.ChangeAtomId]core.ChangeAtomId
	fills      []pendingFill
	revision   core.RevisionTag
	applyChild NodeChangeApplier
}

// Apply runs a changeset against a state and returns the resulting state.
// The input state is left untouched.
//
// Marks with a cell id look for an empty cell with that id among the empty
// cells at the current position and create one there when there is none.
// Nodes are attached once the whole mark list has been walked so that a move
// can be attached before its source is reached.
func Apply(state State, change TaggedChangeset, applyChild NodeChangeApplier) (State, error) {
	if err := Validate(change.Change); err != nil {
		return State{}, err
	}
	in := state.clone()
	a := &applier{
		input:      in.Cells,
		output:     make([]Cell, 0, len(in.Cells)),
		detached:   in.Detached,
		aliases:    make(map[core.ChangeAtomId]core.ChangeAtomId),
		revision:   change.Revision,
		applyChild: applyChild,
	}
	for i, mark := range change.Change {
		for k := 0; k < mark.Count; k++ {
			if err := a.applyCell(i, mark, k); err != nil {
				return State{}, err
			}
		}
	}
	a.output = append(a.output, a.input[a.cursor:]...)
	if err := a.resolveFills(); err != nil {
		return State{}, err
	}
	a.settleAliases()
	logrus.Tracef("Applied %v marks of %v, %v cells out", len(change.Change), change.Revision, len(a.output))
	return State{Cells: a.output, Detached: a.detached}, nil
}

func (a *applier) applyCell(markIndex int, mark Mark, k int) error {
	var cell Cell
	if mark.CellID == nil {
		var ok bool
		if cell, ok = a.takeFilled(); !ok {
			return errors.ApplyOutOfBoundsError{MarkIndex: markIndex, Needed: mark.Count - k}
		}
	} else {
		cell = a.takeEmpty(mark.CellID.ChangeAtomId.WithRevision(a.revision).Offset(k))
	}

	switch effect := effectOf(mark).(type) {
	case Noop:
		if mark.Changes != nil {
			if err := a.changeNode(&cell, mark.Changes); err != nil {
				return err
			}
		}
	case Insert:
		a.fill(markIndex, &cell, cell.ID, mark.Changes)
	case MoveIn:
		a.fill(markIndex, &cell, getEndpoint(effect, a.revision).Offset(k), mark.Changes)
	case Remove:
		if err := a.detach(&cell, effect, k, mark.Changes); err != nil {
			return err
		}
	case MoveOut:
		if err := a.detach(&cell, effect, k, mark.Changes); err != nil {
			return err
		}
	case AttachAndDetach:
		var source core.ChangeAtomId
		switch attach := effect.Attach.(type) {
		case Insert:
			source = cell.ID
		case MoveIn:
			source = getEndpoint(attach, a.revision).Offset(k)
		default:
			unreachableCase(attach)
		}
		target := a.detachKey(effect.Detach, k)
		if target != source {
			a.aliases[target] = source
		}
		cell.ID = a.outputId(effect.Detach, k)
	default:
		unreachableCase(effect)
	}
	a.output = append(a.output, cell)
	return nil
}

// takeFilled consumes the next filled cell, carrying over the empty cells
// before it.
func (a *applier) takeFilled() (Cell, bool) {
	for a.cursor < len(a.input) {
		cell := a.input[a.cursor]
		a.cursor++
		if cell.Filled {
			return cell, true
		}
		a.output = append(a.output, cell)
	}
	return Cell{}, false
}

// takeEmpty consumes the empty cell with the given id if it is among the empty
// cells at the cursor, or makes a new one.
func (a *applier) takeEmpty(id core.ChangeAtomId) Cell {
	for j := a.cursor; j < len(a.input) && !a.input[j].Filled; j++ {
		if a.input[j].ID == id {
			a.output = append(a.output, a.input[a.cursor:j]...)
			a.cursor = j + 1
			return a.input[j]
		}
	}
	return Cell{ID: id}
}

func (a *applier) fill(markIndex int, cell *Cell, source core.ChangeAtomId, changes NodeChange) {
	a.fills = append(a.fills, pendingFill{cell: len(a.output), source: source, changes: changes, markIndex: markIndex})
	cell.Filled = true
	cell.ID = core.ChangeAtomId{}
}

func (a *applier) detachKey(detach Detach, k int) core.ChangeAtomId {
	switch effect := detach.(type) {
	case MoveOut:
		return core.NewChangeAtomId(effect.Revision.Or(a.revision), int(effect.ID)).Offset(k)
	default:
		return a.outputId(detach, k)
	}
}

func (a *applier) outputId(detach Detach, k int) core.ChangeAtomId {
	return getDetachOutputId(detach, a.revision).ChangeAtomId.WithRevision(a.revision).Offset(k)
}

func (a *applier) detach(cell *Cell, detach Detach, k int, changes NodeChange) error {
	key := a.detachKey(detach, k)
	if !cell.Filled {
		// Renaming an empty cell carries its detached node along.
		if key != cell.ID {
			a.aliases[key] = cell.ID
		}
		cell.ID = a.outputId(detach, k)
		return nil
	}
	if changes != nil {
		if err := a.changeNode(cell, changes); err != nil {
			return err
		}
	}
	a.detached[key] = cell.Node
	*cell = Cell{ID: a.outputId(detach, k)}
	return nil
}

func (a *applier) changeNode(cell *Cell, changes NodeChange) error {
	if !cell.Filled {
		node, ok := a.detached[cell.ID]
		if !ok {
			return nil
		}
		changed, err := a.applyChild(node, changes)
		if err != nil {
			return err
		}
		a.detached[cell.ID] = changed
		return nil
	}
	changed, err := a.applyChild(cell.Node, changes)
	if err != nil {
		return err
	}
	cell.Node = changed
	return nil
}

// take removes the node stored under key, following renames of its cell.
func (a *applier) take(key core.ChangeAtomId) (any, bool) {
	seen := make(map[core.ChangeAtomId]bool)
	for !seen[key] {
		seen[key] = true
		if node, ok := a.detached[key]; ok {
			delete(a.detached, key)
			return node, true
		}
		next, ok := a.aliases[key]
		if !ok {
			break
		}
		key = next
	}
	return nil, false
}

func (a *applier) resolveFills() error {
	for _, f := range a.fills {
		node, ok := a.take(f.source)
		if !ok {
			return errors.DetachedNodeNotFoundError{Id: f.source.String()}
		}
		a.output[f.cell].Node = node
		if f.changes != nil {
			if err := a.changeNode(&a.output[f.cell], f.changes); err != nil {
				return err
			}
		}
	}
	return nil
}

// settleAliases moves nodes whose empty cells were renamed under their new key.
func (a *applier) settleAliases() {
	for target := range a.aliases {
		if _, ok := a.detached[target]; ok {
			continue
		}
		if node, ok := a.take(target); ok {
			a.detached[target] = node
		}
	}
}
