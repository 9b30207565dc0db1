package knowledge

import (
	"strings"
	"unicode"

	"github.com/JaimeStill/estimator/pkg/query"
	"github.com/JaimeStill/estimator/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "knowledge_documents", "k").
	Project("id", "ID").
	Project("title", "Title").
	Project("source", "Source").
	Project("content", "Content").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Raw ts_rank_cd with length normalization (flag 1); RelativeScores maps
// it onto [0, 1].
const searchSQL = `
	SELECT k.content, k.source, ts_rank_cd(k.search_vector, to_tsquery('simple', $1), 1) AS score
	FROM public.knowledge_documents k
	WHERE k.search_vector @@ to_tsquery('simple', $1)
	ORDER BY score DESC, k.created_at DESC
	LIMIT $2`

// RelativeScores rescales raw ranks against the best rank in the result
// set, so the top hit scores 1 and thresholds read as a fraction of the
// best match. A set whose best rank is not positive scores 0 throughout.
func RelativeScores(hits []Snippet) []Snippet {
	var top float64
	for _, h := range hits {
		top = max(top, h.Score)
	}

	out := make([]Snippet, len(hits))
	for i, h := range hits {
		out[i] = h
		if top > 0 {
			out[i].Score = max(h.Score, 0) / top
		} else {
			out[i].Score = 0
		}
	}
	return out
}

// TermQuery converts free text into an OR-joined tsquery expression. Terms
// are lowercased, stripped of operator characters, and de-duplicated.
func TermQuery(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return strings.Join(terms, " | ")
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(&d.ID, &d.Title, &d.Source, &d.Content, &d.CreatedAt)
	return d, err
}

func scanSnippet(s repository.Scanner) (Snippet, error) {
	var sn Snippet
	err := s.Scan(&sn.Text, &sn.Source, &sn.Score)
	return sn, err
}
