package index

import (
	"sort"

	"dit/internal/entity"
)

// Derived views. Nothing here is stored: each view replays the issue's
// comment tree on demand, so the files on disk stay the single source
// of truth and a revert or commit needs no cache invalidation.

// CommentCount counts the discussion comments under an issue. Only
// comments with text count, the walk does not descend through textless
// event comments, and the first text comment is treated as the issue
// description rather than discussion.
func (ix *Index) CommentCount(issue *entity.Entity) int {
	count := 0
	queue := []string{issue.ID}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, comment := range ix.Comments(id) {
			if comment.Text == "" {
				continue
			}
			count++
			queue = append(queue, comment.ID)
		}
	}
	return max(0, count-1)
}

// Owners replays assignment events over the issue's direct comments:
// assigned adds the assignee, unassigned removes it. The survivors are
// returned in id order.
func (ix *Index) Owners(issue *entity.Entity) []*entity.Entity {
	ownerIDs := make(map[string]struct{})
	for _, comment := range ix.Comments(issue.ID) {
		switch comment.EventKind {
		case entity.EventAssigned:
			ownerIDs[comment.Assignee] = struct{}{}
		case entity.EventUnassigned:
			delete(ownerIDs, comment.Assignee)
		}
	}

	owners := make([]*entity.Entity, 0, len(ownerIDs))
	for id := range ownerIDs {
		if user, ok := ix.get(id); ok {
			owners = append(owners, user)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].ID < owners[j].ID })
	return owners
}

// Resolution replays resolved/reopened events over the issue's direct
// comments into a per-author vote counter (resolved +1, reopened -1,
// zeroes dropped) and the consensus fraction: each remaining author's
// vote clamped to [0,1], averaged. An issue nobody voted on has
// fraction 0.
func (ix *Index) Resolution(issue *entity.Entity) (votes map[string]int, fraction float64) {
	votes = make(map[string]int)
	for _, comment := range ix.Comments(issue.ID) {
		switch comment.EventKind {
		case entity.EventResolved:
			votes[comment.Author]++
		case entity.EventReopened:
			votes[comment.Author]--
		}
	}
	for author, vote := range votes {
		if vote == 0 {
			delete(votes, author)
		}
	}
	if len(votes) == 0 {
		return votes, 0
	}
	sum := 0.0
	for _, vote := range votes {
		sum += clamp01(vote)
	}
	return votes, sum / float64(len(votes))
}

// LabelWeights replays label events over the issue's direct comments
// into per-label per-author counters and the per-label consensus
// fraction, computed the same way Resolution computes its fraction.
func (ix *Index) LabelWeights(issue *entity.Entity) (weights map[string]float64, userWeights map[string]map[string]int) {
	userWeights = make(map[string]map[string]int)
	for _, comment := range ix.Comments(issue.ID) {
		var delta int
		switch comment.EventKind {
		case entity.EventAddedLabel:
			delta = 1
		case entity.EventRemovedLabel:
			delta = -1
		default:
			continue
		}
		byAuthor, ok := userWeights[comment.Label]
		if !ok {
			byAuthor = make(map[string]int)
			userWeights[comment.Label] = byAuthor
		}
		byAuthor[comment.Author] += delta
	}

	weights = make(map[string]float64)
	for labelID, byAuthor := range userWeights {
		for author, vote := range byAuthor {
			if vote == 0 {
				delete(byAuthor, author)
			}
		}
		if len(byAuthor) == 0 {
			continue
		}
		sum := 0.0
		for _, vote := range byAuthor {
			sum += clamp01(vote)
		}
		weights[labelID] = sum / float64(len(byAuthor))
	}
	return weights, userWeights
}

// ActiveLabels resolves the labels whose consensus weight is positive,
// sorted by name (ties broken by id).
func (ix *Index) ActiveLabels(issue *entity.Entity) []*entity.Entity {
	weights, _ := ix.LabelWeights(issue)
	var labels []*entity.Entity
	for labelID, weight := range weights {
		if weight <= 0 {
			continue
		}
		if label, ok := ix.get(labelID); ok {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Name != labels[j].Name {
			return labels[i].Name < labels[j].Name
		}
		return labels[i].ID < labels[j].ID
	})
	return labels
}

// Participants maps the author of the issue and of every descendant
// comment, event comments included, to their user entity. Unresolvable
// author ids map to nil so callers still see that someone was there.
func (ix *Index) Participants(issue *entity.Entity) map[string]*entity.Entity {
	userIDs := map[string]struct{}{issue.Author: {}}
	queue := []string{issue.ID}
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, comment := range ix.Comments(id) {
			userIDs[comment.Author] = struct{}{}
			queue = append(queue, comment.ID)
		}
	}

	users := make(map[string]*entity.Entity, len(userIDs))
	for id := range userIDs {
		user, _ := ix.get(id)
		users[id] = user
	}
	return users
}

func clamp01(vote int) float64 {
	if vote <= 0 {
		return 0
	}
	return 1
}
