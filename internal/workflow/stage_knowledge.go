package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/estimator/internal/knowledge"
)

// KnowledgeNode is a node of the knowledge subgraph.
type KnowledgeNode string

const (
	KnowSearchStandards KnowledgeNode = "search_standards"
	KnowSearchCodes     KnowledgeNode = "search_codes"
	KnowValidate        KnowledgeNode = "validate"
	KnowComplete        KnowledgeNode = "complete"
)

const (
	guardSearched  Guard = "searched"
	guardValidated Guard = "validated"
)

// KnowledgeTable is search_standards -> search_codes -> validate -> complete.
// There is no failure edge; the stage always completes.
var KnowledgeTable = NewTable[KnowledgeNode]("knowledge").
	On(KnowSearchStandards, guardSearched, KnowSearchCodes).
	On(KnowSearchCodes, guardSearched, KnowValidate).
	On(KnowValidate, guardValidated, KnowComplete)

const (
	idealSnippetCount = 5
	idealSnippetScore = 0.7
)

// StandardsQuery builds the finishing standards search text.
func StandardsQuery(r Requirements) string {
	return collapse(fmt.Sprintf("%s %s finishing standards Egypt construction", r.CurrentStatus, r.Style))
}

// CodesQuery builds the building codes search text.
func CodesQuery(r Requirements) string {
	return collapse(fmt.Sprintf("Egypt building codes regulations %s %s construction standards", r.ProjectType, r.Location))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (rt *Runtime) runKnowledge(ctx context.Context, st *State) error {
	var gathered []knowledge.Snippet
	seen := make(map[string]struct{})

	search := func(ctx context.Context, st *State, label, q string, topK int, minScore float64) {
		if rt.Knowledge == nil {
			st.AddError("knowledge search unavailable; continuing without references")
			return
		}
		hits, err := rt.Knowledge.Search(ctx, q, topK)
		if err != nil {
			st.AddError(fmt.Sprintf("knowledge %s search failed: %v", label, err))
			rt.Logger.WarnContext(ctx, "knowledge search failed", "search", label, "error", err)
			return
		}
		for _, h := range hits {
			if h.Score < minScore {
				continue
			}
			key := strings.TrimSpace(h.Text)
			if _, dup := seen[key]; dup || key == "" {
				continue
			}
			seen[key] = struct{}{}
			gathered = append(gathered, h)
		}
	}

	opts := rt.Options.Knowledge
	m := &machine[KnowledgeNode]{
		table: KnowledgeTable,
		steps: map[KnowledgeNode]step{
			KnowSearchStandards: func(ctx context.Context, st *State) (Guard, error) {
				search(ctx, st, "standards", StandardsQuery(st.Requirements), opts.StandardsTopK, opts.StandardsMinScore)
				return guardSearched, nil
			},
			KnowSearchCodes: func(ctx context.Context, st *State) (Guard, error) {
				search(ctx, st, "codes", CodesQuery(st.Requirements), opts.CodesTopK, opts.CodesMinScore)
				return guardSearched, nil
			},
			KnowValidate: func(ctx context.Context, st *State) (Guard, error) {
				var sum float64
				for _, s := range gathered {
					sum += s.Score
				}
				avg := 0.0
				if len(gathered) > 0 {
					avg = sum / float64(len(gathered))
				}
				rt.Logger.InfoContext(ctx, "knowledge gathered",
					"session_id", st.SessionID,
					"snippets", len(gathered),
					"avg_score", avg,
					"meets_ideal", len(gathered) >= idealSnippetCount && avg >= idealSnippetScore,
				)
				return guardValidated, nil
			},
			KnowComplete: func(_ context.Context, st *State) (Guard, error) {
				st.KnowledgeSnippets = append(st.KnowledgeSnippets, gathered...)
				st.KnowledgeComplete = true
				return "", nil
			},
		},
		terminal: terminals(KnowComplete),
		limit:    8,
	}

	_, err := m.run(ctx, st, KnowSearchStandards)
	return err
}
