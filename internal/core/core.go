package core

import (
	"fmt"
	"sync/atomic"
)

// ChangesetLocalID is unique within the scope of one revision.
type ChangesetLocalID int

// ChangeAtomId is the unit of identity for a cell or a move endpoint.
type ChangeAtomId struct {
	Revision RevisionTag      `json:"revision,omitempty"`
	LocalID  ChangesetLocalID `json:"localId"`
}

func NewChangeAtomId(revision RevisionTag, localId int) ChangeAtomId {
	return ChangeAtomId{Revision: revision, LocalID: ChangesetLocalID(localId)}
}

func (id ChangeAtomId) Offset(offset int) ChangeAtomId {
	return ChangeAtomId{Revision: id.Revision, LocalID: id.LocalID + ChangesetLocalID(offset)}
}

// WithRevision fills in the revision when the id does not carry one.
func (id ChangeAtomId) WithRevision(revision RevisionTag) ChangeAtomId {
	if id.Revision.IsSet() {
		return id
	}
	return ChangeAtomId{Revision: revision, LocalID: id.LocalID}
}

func (id ChangeAtomId) String() string {
	return fmt.Sprintf("%v@%v", id.LocalID, id.Revision)
}

// TaggedChange pairs a change with the revision that produced it.
type TaggedChange[T any] struct {
	Revision RevisionTag
	Change   T
}

func Tagged[T any](revision RevisionTag, change T) TaggedChange[T] {
	return TaggedChange[T]{Revision: revision, Change: change}
}

// IDAllocator supplies fresh local ids within the revision being built.
type IDAllocator interface {
	Allocate(count int) ChangesetLocalID
}

type CounterIDAllocator struct {
	next atomic.Int64
}

func NewIDAllocator(start ChangesetLocalID) *CounterIDAllocator {
	a := &CounterIDAllocator{}
	a.next.Store(int64(start))
	return a
}

// Allocate reserves count consecutive ids and returns the first one.
func (a *CounterIDAllocator) Allocate(count int) ChangesetLocalID {
	return ChangesetLocalID(a.next.Add(int64(count)) - int64(count))
}

func (a *CounterIDAllocator) Peek() ChangesetLocalID {
	return ChangesetLocalID(a.next.Load())
}
