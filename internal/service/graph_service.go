package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/renardhq/renard/internal/model"
)

const (
	graphPageLimit   = 500
	graphMaxNodes    = 40
	graphMinTokenLen = 4
	graphMinEdge     = 2
)

var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"were": {}, "they": {}, "their": {}, "there": {}, "which": {}, "would": {},
	"could": {}, "should": {}, "about": {}, "after": {}, "before": {},
	"into": {}, "over": {}, "under": {}, "then": {}, "than": {}, "when": {},
	"where": {}, "what": {}, "your": {}, "just": {}, "like": {}, "will": {},
	"does": {}, "doesn": {}, "while": {}, "because": {}, "some": {}, "only": {},
	"also": {}, "more": {}, "most": {}, "such": {}, "each": {}, "other": {},
	"using": {}, "used": {}, "here": {}, "them": {}, "these": {}, "those": {},
}

// GraphService derives a term co-occurrence graph from the indexed text.
// It is an analytic read path over the same index contract the pipeline
// writes to; nothing is persisted and the graph is recomputed per request.
type GraphService struct {
	index      vectorIndex
	collection string
}

func NewGraphService(index vectorIndex, collection string) *GraphService {
	return &GraphService{index: index, collection: collection}
}

func (s *GraphService) Build(ctx context.Context, userID, teamID string) (*model.Graph, error) {
	filter := map[string]string{"user_id": userID}
	if teamID != "" {
		filter["team_id"] = teamID
	}
	points, _, err := s.index.Scroll(ctx, s.collection, filter, graphPageLimit, "")
	if err != nil {
		return nil, err
	}

	freq := map[string]int{}
	cooc := map[[2]string]int{}
	for _, point := range points {
		text, _ := point.Payload["content"].(string)
		if text == "" {
			continue
		}
		tokens := tokenize(text)
		for _, token := range tokens {
			freq[token]++
		}
		for i := 0; i < len(tokens); i++ {
			for j := i + 1; j < len(tokens); j++ {
				cooc[pairKey(tokens[i], tokens[j])]++
			}
		}
	}

	type tokenCount struct {
		token string
		count int
	}
	ranked := make([]tokenCount, 0, len(freq))
	for token, count := range freq {
		ranked = append(ranked, tokenCount{token: token, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].token < ranked[j].token
	})
	if len(ranked) > graphMaxNodes {
		ranked = ranked[:graphMaxNodes]
	}

	graph := &model.Graph{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
	top := make(map[string]struct{}, len(ranked))
	for _, item := range ranked {
		top[item.token] = struct{}{}
		size := 10 + item.count*2
		if size > 60 {
			size = 60
		}
		graph.Nodes = append(graph.Nodes, model.GraphNode{
			ID:    item.token,
			Label: item.token,
			Count: item.count,
			Size:  size,
		})
	}
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			weight := cooc[pairKey(ranked[i].token, ranked[j].token)]
			if weight >= graphMinEdge {
				graph.Edges = append(graph.Edges, model.GraphEdge{
					Source: ranked[i].token,
					Target: ranked[j].token,
					Weight: weight,
				})
			}
		}
	}
	return graph, nil
}

// tokenize lowercases, strips punctuation, and drops short tokens, stop
// words and pure digit runs. Duplicates within one text are collapsed so
// co-occurrence counts texts, not repetitions.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < graphMinTokenLen {
			continue
		}
		if _, ok := stopWords[field]; ok {
			continue
		}
		if isAllDigits(field) {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

func isAllDigits(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
