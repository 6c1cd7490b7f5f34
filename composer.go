package seqfield

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/LiangrunDa/seqfield/errors"
	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/LiangrunDa/seqfield/internal/log"
	"github.com/LiangrunDa/seqfield/internal/sequence"
	"github.com/sirupsen/logrus"
)

// maxComposePasses bounds how many times a compose is re-run after the move
// effect table reports a fact that was read before it was written.
const maxComposePasses = 8

var composeCounter atomic.Uint64

// Composer composes changesets of one sequence field. It keeps no state
// between calls and is safe for concurrent use.
type Composer struct {
	composer     *sequence.Composer
	composeChild NodeChangeComposer
	idAllocator  IDAllocator
}

// NewComposer resolves cfg once. composeChild composes nested node changes and
// may be nil when no changeset carries any.
func NewComposer(cfg Config, composeChild NodeChangeComposer, idAllocator IDAllocator) *Composer {
	if composeChild == nil {
		composeChild = func(_, _ NodeChange) NodeChange {
			panic(errors.AssertionError{Message: "node changes composed without a node change composer"})
		}
	}
	if idAllocator == nil {
		idAllocator = core.NewIDAllocator(0)
	}
	return &Composer{
		composer:     sequence.NewComposer(cfg),
		composeChild: composeChild,
		idAllocator:  idAllocator,
	}
}

// ComposePair composes two changesets, change2 applying after change1. The
// revisions of the two changes order unrelated attaches.
func (c *Composer) ComposePair(change1, change2 TaggedChangeset) (Changeset, error) {
	return c.ComposePairWithMetadata(change1, change2, core.NewRevisionIndex(change1.Revision, change2.Revision))
}

// ComposePairWithMetadata is ComposePair with an explicit revision order, for
// changesets that already are compositions of several revisions.
func (c *Composer) ComposePairWithMetadata(change1, change2 TaggedChangeset, metadata RevisionMetadataSource) (result Changeset, err error) {
	logger := log.ForCompose(strconv.FormatUint(composeCounter.Add(1), 10))
	defer func() {
		if r := recover(); r != nil {
			if unsupported, ok := r.(errors.UnsupportedCompositionError); ok {
				logger.Debugf("%v", unsupported)
				result, err = nil, unsupported
				return
			}
			panic(r)
		}
	}()

	logger.Infof("Compose %v marks of %v with %v marks of %v", len(change1.Change), change1.Revision, len(change2.Change), change2.Revision)
	table := sequence.NewMoveEffectTable().WithLogger(logger)
	composer := c.composer.WithLogger(logger)
	for pass := 1; ; pass++ {
		result = composer.Compose(change1, change2, c.composeChild, c.idAllocator, table, metadata)
		if !table.Invalidated() {
			break
		}
		if pass == maxComposePasses {
			panic(errors.AssertionError{Message: fmt.Sprintf("move effects still changing after %v passes", pass)})
		}
		logger.Debugf("Amend pass %v", pass+1)
		table.ResetInvalidation()
	}
	log.MinimalTracef(logger, "Composed %v", func() string { return sequence.FormatMarks(result) })
	logger.Infof("Composed into %v marks", len(result))
	return result, nil
}

// ComposeAll composes changes in order. The result carries no revision of its
// own; its marks carry the revisions of the changes they came from.
func (c *Composer) ComposeAll(changes ...TaggedChangeset) (TaggedChangeset, error) {
	if len(changes) == 0 {
		return Tagged(core.NoRevision, Changeset{}), nil
	}
	revisions := make([]RevisionTag, len(changes))
	for i, change := range changes {
		revisions[i] = change.Revision
	}
	metadata := core.NewRevisionIndex(revisions...)

	acc := changes[0]
	for _, change := range changes[1:] {
		composed, err := c.ComposePairWithMetadata(acc, change, metadata)
		if err != nil {
			return TaggedChangeset{}, err
		}
		acc = Tagged(core.NoRevision, composed)
	}
	return acc, nil
}

func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}

func DebugMode() {
	logrus.StandardLogger().SetLevel(logrus.TraceLevel)
}

func SetLogPath(path string) {
	logFile, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0766)
	mw := io.MultiWriter(os.Stdout, logFile)
	logrus.SetOutput(mw)
}

// EnableAnalysis switches log output to JSON lines.
func EnableAnalysis() {
	logrus.SetFormatter(log.NewComposeFormatter(true))
}

func init() {
	logrus.SetFormatter(log.NewComposeFormatter(false))
}
