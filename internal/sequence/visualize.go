package sequence

import (
	"fmt"
	"strings"

	"github.com/LiangrunDa/seqfield/internal/core"
	"github.com/awalterschulze/gographviz"
)

// Visualize renders a changeset as a DOT graph: one node per mark in field
// order, and a dashed edge from each move-out to the move-in its nodes land on.
func Visualize(change TaggedChangeset) string {
	graphAst := gographviz.NewGraph()
	graphAst.SetName("Changeset")
	graphAst.SetDir(true)
	graphAst.AddAttr("Changeset", "rankdir", "LR")

	var sources []moveHalf
	destinations := make(map[core.ChangeAtomId]string)
	for i, mark := range change.Change {
		name := fmt.Sprintf("mark%v", i)
		graphAst.AddNode("Changeset", name, map[string]string{
			"shape": "box",
			"label": fmt.Sprintf("\"%v\"", strings.ReplaceAll(withRevision(mark, change.Revision).String(), "\"", "'")),
		})
		if i > 0 {
			graphAst.AddEdge(fmt.Sprintf("mark%v", i-1), name, true, map[string]string{
				"label": "\"\"",
			})
		}
		recordMoves(effectOf(mark), change.Revision, name, &sources, destinations)
	}

	for _, source := range sources {
		if to, ok := destinations[source.atom]; ok {
			graphAst.AddEdge(source.node, to, true, map[string]string{
				"style": "dashed",
				"label": fmt.Sprintf("\"%v\"", source.atom),
			})
		}
	}
	return graphAst.String()
}

type moveHalf struct {
	atom core.ChangeAtomId
	node string
}

// recordMoves indexes move halves by the atom naming the nodes' source.
func recordMoves(effect MarkEffect, revision core.RevisionTag, name string, sources *[]moveHalf, destinations map[core.ChangeAtomId]string) {
	switch e := effect.(type) {
	case AttachAndDetach:
		recordMoves(e.Attach, revision, name, sources, destinations)
		recordMoves(e.Detach, revision, name, sources, destinations)
	case MoveOut:
		*sources = append(*sources, moveHalf{core.NewChangeAtomId(e.Revision.Or(revision), int(e.ID)), name})
	case MoveIn:
		destinations[getEndpoint(e, revision)] = name
	}
}
