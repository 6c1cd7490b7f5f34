package core

import (
	"fmt"

	"github.com/google/uuid"
)

// RevisionTag identifies the edit that produced a mark or a cell.
// The zero value stands for "no revision", as used inside a transaction
// before tags are assigned.
type RevisionTag uuid.UUID

// NoRevision is the zero RevisionTag. Treat it as read-only; IsSet checks
// against the zero value, not this variable.
var NoRevision = RevisionTag(uuid.Nil)

func NewRevisionTag() RevisionTag {
	return RevisionTag(uuid.New())
}

func ParseRevisionTag(s string) (RevisionTag, error) {
	if s == "" {
		return NoRevision, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return NoRevision, fmt.Errorf("parse revision tag %q: %w", s, err)
	}
	return RevisionTag(id), nil
}

func (r RevisionTag) IsSet() bool {
	return r != RevisionTag{}
}

// Or returns r, or fallback when r is not set.
func (r RevisionTag) Or(fallback RevisionTag) RevisionTag {
	if r.IsSet() {
		return r
	}
	return fallback
}

func (r RevisionTag) String() string {
	if !r.IsSet() {
		return "_"
	}
	return uuid.UUID(r).String()[:8]
}

func (r RevisionTag) MarshalText() ([]byte, error) {
	if !r.IsSet() {
		return []byte{}, nil
	}
	return uuid.UUID(r).MarshalText()
}

func (r *RevisionTag) UnmarshalText(data []byte) error {
	parsed, err := ParseRevisionTag(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RevisionMetadataSource orders the revisions of the current composition
// window. It is only consulted to break ties between unrelated attaches.
type RevisionMetadataSource interface {
	GetIndex(revision RevisionTag) (int, bool)
}

// RevisionIndex is a RevisionMetadataSource built from revisions listed in
// application order.
type RevisionIndex struct {
	indexes map[RevisionTag]int
}

func NewRevisionIndex(revisions ...RevisionTag) *RevisionIndex {
	indexes := make(map[RevisionTag]int, len(revisions))
	for i, rev := range revisions {
		if rev.IsSet() {
			indexes[rev] = i
		}
	}
	return &RevisionIndex{indexes: indexes}
}

func (ri *RevisionIndex) GetIndex(revision RevisionTag) (int, bool) {
	index, ok := ri.indexes[revision]
	return index, ok
}
