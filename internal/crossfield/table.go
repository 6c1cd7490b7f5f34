// Package crossfield holds facts about moves that can only be resolved by
// correlating marks that are far apart, possibly in other fields.
//
// A Table is scoped to a single compose (or rebase) call. Entries are ranges
// of local ids under a (target, revision) key; values are stored relative to
// the first id of their range and are offset when a range is read or split
// part-way through.
package crossfield

import (
	"fmt"
	"strings"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

type Target uint8

const (
	Source Target = iota
	Destination
)

func (t Target) String() string {
	switch t {
	case Source:
		return "Source"
	case Destination:
		return "Destination"
	}
	return ""
}

// RangeQueryResult describes the first run of a queried range.
// Length is the number of ids from the start of the query that share Value
// (or share being absent), and may be shorter than the requested count.
type RangeQueryResult[T any] struct {
	Value  T
	Found  bool
	Length int
}

// Manager is the boundary through which field kinds record and read
// cross-field facts.
type Manager[T any] interface {
	Get(target Target, revision core.RevisionTag, id core.ChangesetLocalID, count int, addDependency bool) RangeQueryResult[T]
	Set(target Target, revision core.RevisionTag, id core.ChangesetLocalID, count int, value T, invalidateDependents bool)
}

type key struct {
	target   Target
	revision core.RevisionTag
}

type entry[T any] struct {
	start  core.ChangesetLocalID
	length int
	value  T
}

func (e entry[T]) end() core.ChangesetLocalID {
	return e.start + core.ChangesetLocalID(e.length)
}

type span struct {
	start core.ChangesetLocalID
	end   core.ChangesetLocalID
}

type Table[T any] struct {
	entries     map[key][]entry[T] // sorted by start, non-overlapping
	deps        map[key][]span
	offset      func(value T, delta int) T
	equal       func(a, b T) bool
	invalidated bool
	logger      *logrus.Entry
}

// NewTable creates an empty table. offset shifts a value stored for id x so
// that it describes id x+delta; equal decides whether a Set changes anything.
func NewTable[T any](offset func(value T, delta int) T, equal func(a, b T) bool) *Table[T] {
	return &Table[T]{
		entries: make(map[key][]entry[T]),
		deps:    make(map[key][]span),
		offset:  offset,
		equal:   equal,
		logger:  logrus.NewEntry(logrus.StandardLogger()),
	}
}

func (t *Table[T]) WithLogger(logger *logrus.Entry) *Table[T] {
	t.logger = logger
	return t
}

func (t *Table[T]) Get(target Target, revision core.RevisionTag, id core.ChangesetLocalID, count int, addDependency bool) RangeQueryResult[T] {
	k := key{target, revision}
	if addDependency {
		t.deps[k] = append(t.deps[k], span{id, id + core.ChangesetLocalID(count)})
	}
	return t.get(k, id, count)
}

func (t *Table[T]) get(k key, id core.ChangesetLocalID, count int) RangeQueryResult[T] {
	if count <= 0 {
		panic(errors.AssertionError{Message: "range queries must cover at least one id"})
	}
	list := t.entries[k]
	i := t.firstEndingAfter(list, id)
	if i == len(list) {
		return RangeQueryResult[T]{Length: count}
	}
	e := list[i]
	if e.start > id {
		return RangeQueryResult[T]{Length: min(int(e.start-id), count)}
	}
	delta := int(id - e.start)
	return RangeQueryResult[T]{
		Value:  t.offset(e.value, delta),
		Found:  true,
		Length: min(e.length-delta, count),
	}
}

func (t *Table[T]) Set(target Target, revision core.RevisionTag, id core.ChangesetLocalID, count int, value T, invalidateDependents bool) {
	if count <= 0 {
		panic(errors.AssertionError{Message: "range updates must cover at least one id"})
	}
	k := key{target, revision}
	end := id + core.ChangesetLocalID(count)
	if invalidateDependents && !t.invalidated && t.hasDependency(k, id, end) && t.differs(k, id, count, value) {
		t.logger.Debugf("Cross-field %v %v [%v, %v) changed after being read", target, revision, id, end)
		t.invalidated = true
	}

	t.splitAt(k, id)
	t.splitAt(k, end)
	list := t.entries[k]
	lo := t.firstStartingAtOrAfter(list, id)
	hi := t.firstStartingAtOrAfter(list, end)
	list = slices.Delete(list, lo, hi)
	t.entries[k] = slices.Insert(list, lo, entry[T]{start: id, length: count, value: value})
}

// SplitAt makes id the first id of an entry if some entry covers it.
func (t *Table[T]) SplitAt(target Target, revision core.RevisionTag, id core.ChangesetLocalID) {
	t.splitAt(key{target, revision}, id)
}

func (t *Table[T]) splitAt(k key, at core.ChangesetLocalID) {
	list := t.entries[k]
	i := t.firstEndingAfter(list, at)
	if i == len(list) {
		return
	}
	e := list[i]
	if e.start >= at {
		return
	}
	delta := int(at - e.start)
	left := entry[T]{start: e.start, length: delta, value: e.value}
	right := entry[T]{start: at, length: e.length - delta, value: t.offset(e.value, delta)}
	list[i] = left
	t.entries[k] = slices.Insert(list, i+1, right)
}

func (t *Table[T]) hasDependency(k key, start, end core.ChangesetLocalID) bool {
	for _, s := range t.deps[k] {
		if s.start < end && start < s.end {
			return true
		}
	}
	return false
}

func (t *Table[T]) differs(k key, id core.ChangesetLocalID, count int, value T) bool {
	done := 0
	for done < count {
		current := t.get(k, id+core.ChangesetLocalID(done), count-done)
		if !current.Found || !t.equal(current.Value, t.offset(value, done)) {
			return true
		}
		done += current.Length
	}
	return false
}

// Invalidated reports whether a value read with addDependency was later changed.
func (t *Table[T]) Invalidated() bool {
	return t.invalidated
}

// ResetInvalidation starts a new pass: the flag and recorded reads are cleared,
// the stored facts are kept.
func (t *Table[T]) ResetInvalidation() {
	t.invalidated = false
	t.deps = make(map[key][]span)
}

func (t *Table[T]) Len() int {
	n := 0
	for _, list := range t.entries {
		n += len(list)
	}
	return n
}

func (t *Table[T]) String() string {
	var b strings.Builder
	for k, list := range t.entries {
		for _, e := range list {
			fmt.Fprintf(&b, "%v %v [%v, %v): %+v\n", k.target, k.revision, e.start, e.end(), e.value)
		}
	}
	return b.String()
}

func (t *Table[T]) firstEndingAfter(list []entry[T], id core.ChangesetLocalID) int {
	i, _ := slices.BinarySearchFunc(list, id, func(e entry[T], target core.ChangesetLocalID) int {
		if e.end() <= target {
			return -1
		}
		return 1
	})
	return i
}

func (t *Table[T]) firstStartingAtOrAfter(list []entry[T], id core.ChangesetLocalID) int {
	i, _ := slices.BinarySearchFunc(list, id, func(e entry[T], target core.ChangesetLocalID) int {
		if e.start < target {
			return -1
		}
		return 1
	})
	return i
}
