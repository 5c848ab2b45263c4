package index

import (
	"sort"
	"strings"

	"dit/internal/entity"
	"dit/internal/search"
)

// Search evaluates a free-text query against the index. The query is
// split shell-style so quoted phrases stay one term; each term matches
// as an id prefix and against the inverted text index, a "label:"
// prefix restricts a term's text hits to labels and labelled comments,
// and results are ordered by match count, ties broken by id. An empty
// kinds list means all kinds.
func (ix *Index) Search(query string, kinds ...entity.Kind) []*entity.Entity {
	counts := make(map[string]int)

	for _, term := range search.SplitQuery(query) {
		labelOnly := false
		if rest, ok := strings.CutPrefix(term, "label:"); ok {
			labelOnly = true
			term = rest
		}
		if term == "" {
			continue
		}

		ix.ids.WalkPrefix(term, func(id string, _ *entity.Entity) bool {
			counts[id]++
			return true
		})

		for id := range ix.text.Hits(term) {
			hit, ok := ix.get(id)
			if !ok {
				continue
			}
			if labelOnly {
				labelled := hit.Kind == entity.KindLabel ||
					(hit.Kind == entity.KindComment && hit.Label != "")
				if !labelled {
					continue
				}
			}
			counts[id]++
		}
	}

	results := make([]*entity.Entity, 0, len(counts))
	for id := range counts {
		hit, ok := ix.get(id)
		if !ok {
			continue
		}
		if len(kinds) > 0 {
			wanted := false
			for _, kind := range kinds {
				if hit.Kind == kind {
					wanted = true
					break
				}
			}
			if !wanted {
				continue
			}
		}
		results = append(results, hit)
	}
	sort.Slice(results, func(i, j int) bool {
		ci, cj := counts[results[i].ID], counts[results[j].ID]
		if ci != cj {
			return ci > cj
		}
		return results[i].ID < results[j].ID
	})
	return results
}
