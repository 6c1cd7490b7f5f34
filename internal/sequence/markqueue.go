package sequence

import (
	"github.com/LiangrunDa/seqfield/internal/core"
	stack "github.com/golang-collections/collections/stack"
)

// MarkQueue walks a mark list, handing out marks split to the requested
// length. Move marks are also split wherever the move effect table records a
// boundary, so that every mark handed out has uniform cross-field effects.
type MarkQueue struct {
	list        MarkList
	index       int
	pending     *stack.Stack // element: Mark, split remainders and peeked marks
	revision    core.RevisionTag
	moveEffects MoveEffectTable
}

func NewMarkQueue(list MarkList, revision core.RevisionTag, moveEffects MoveEffectTable) *MarkQueue {
	return &MarkQueue{
		list:        list,
		pending:     stack.New(),
		revision:    revision,
		moveEffects: moveEffects,
	}
}

func (q *MarkQueue) Revision() core.RevisionTag {
	return q.revision
}

func (q *MarkQueue) IsEmpty() bool {
	_, ok := q.Peek()
	return !ok
}

// Peek returns the next mark without consuming it.
func (q *MarkQueue) Peek() (Mark, bool) {
	mark, ok := q.tryDequeue()
	if ok {
		q.pending.Push(mark)
	}
	return mark, ok
}

func (q *MarkQueue) Dequeue() Mark {
	mark, ok := q.tryDequeue()
	assertInvariant(ok, "Unexpected end of mark queue")
	return mark
}

// DequeueUpTo consumes at most maxLength cells of the next mark.
func (q *MarkQueue) DequeueUpTo(maxLength int) Mark {
	mark := q.Dequeue()
	if mark.Count <= maxLength {
		return mark
	}
	first, second := splitMark(mark, maxLength)
	splitMoveEffectRanges(mark.Effect, q.revision, maxLength, q.moveEffects)
	q.pending.Push(second)
	return first
}

func (q *MarkQueue) tryDequeue() (Mark, bool) {
	var mark Mark
	if q.pending.Len() > 0 {
		mark = q.pending.Pop().(Mark)
	} else if q.index < len(q.list) {
		mark = q.list[q.index]
		q.index++
	} else {
		return Mark{}, false
	}

	length := moveEffectLength(effectOf(mark), mark.Count, q.revision, q.moveEffects)
	if length < mark.Count {
		first, second := splitMark(mark, length)
		q.pending.Push(second)
		return first, true
	}
	return mark, true
}
