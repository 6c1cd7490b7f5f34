package seqfield

import (
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/LiangrunDa/seqfield/internal/sequence"
)

// type

type RevisionTag = core.RevisionTag
type ChangeAtomId = core.ChangeAtomId
type ChangesetLocalID = core.ChangesetLocalID
type RevisionMetadataSource = core.RevisionMetadataSource
type RevisionIndex = core.RevisionIndex
type IDAllocator = core.IDAllocator

type Mark = sequence.Mark
type MarkList = sequence.MarkList
type Changeset = sequence.Changeset
type TaggedChangeset = sequence.TaggedChangeset
type CellId = sequence.CellId
type LineageEvent = sequence.LineageEvent
type MoveId = sequence.MoveId
type NodeChange = sequence.NodeChange
type NodeChangeComposer = sequence.NodeChangeComposer
type NodeChangeApplier = sequence.NodeChangeApplier

type MarkEffect = sequence.MarkEffect
type Attach = sequence.Attach
type Detach = sequence.Detach
type Noop = sequence.Noop
type Insert = sequence.Insert
type MoveIn = sequence.MoveIn
type Remove = sequence.Remove
type MoveOut = sequence.MoveOut
type AttachAndDetach = sequence.AttachAndDetach

type Config = sequence.Config
type CellOrderingMethod = sequence.CellOrderingMethod

type State = sequence.State
type Cell = sequence.Cell
type ExMark = sequence.ExMark
type ExChangeset = sequence.ExChangeset

// const

const Tombstone = sequence.Tombstone
const Lineage = sequence.Lineage

// NoRevision tags changesets that have no revision yet. It equals the zero
// RevisionTag and is read-only.
var NoRevision = core.NoRevision

// func

var NewRevisionTag = core.NewRevisionTag
var ParseRevisionTag = core.ParseRevisionTag
var NewChangeAtomId = core.NewChangeAtomId
var NewRevisionIndex = core.NewRevisionIndex
var NewIDAllocator = core.NewIDAllocator
var NewCellId = sequence.NewCellId

var NewNoop = sequence.NewNoop
var NewModify = sequence.NewModify
var NewInsert = sequence.NewInsert
var NewRevive = sequence.NewRevive
var NewRemove = sequence.NewRemove
var NewMoveOut = sequence.NewMoveOut
var NewMoveIn = sequence.NewMoveIn
var NewAttachAndDetach = sequence.NewAttachAndDetach

var DefaultConfig = sequence.DefaultConfig
var LoadConfig = sequence.LoadConfig

var NewState = sequence.NewState
var Apply = sequence.Apply
var Validate = sequence.Validate
var Visualize = sequence.Visualize
var EncodeChangeset = sequence.EncodeChangeset
var DecodeChangeset = sequence.DecodeChangeset
var FormatMarks = sequence.FormatMarks

func Tagged(revision RevisionTag, change Changeset) TaggedChangeset {
	return core.Tagged(revision, change)
}
