package index

import (
	"context"
	"math"
	"testing"

	"dit/internal/entity"
)

// saveEventComment files an event comment under the parent with an
// explicit author, bypassing the attribute-map entry point so tests can
// simulate multiple voters.
func saveEventComment(t *testing.T, ix *Index, ctx context.Context, parent *entity.Entity, author, kind string) *entity.Entity {
	t.Helper()

	comment := ix.NewComment(parent)
	comment.Author = author
	comment.EventKind = kind
	if err := ix.Save(ctx, comment); err != nil {
		t.Fatalf("save %s comment: %v", kind, err)
	}
	return comment
}

func saveUser(t *testing.T, ix *Index, ctx context.Context, email, name string) *entity.Entity {
	t.Helper()

	user := entity.New(entity.KindUser)
	user.Email = email
	user.Name = name
	if err := ix.Save(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	return user
}

func TestCommentCount(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "counting")

	if got := ix.CommentCount(issue); got != 0 {
		t.Fatalf("empty issue count = %d", got)
	}

	// The first text comment is the description, not discussion.
	description := ix.NewComment(issue)
	description.Text = "steps to reproduce"
	if err := ix.Save(ctx, description); err != nil {
		t.Fatal(err)
	}
	if got := ix.CommentCount(issue); got != 0 {
		t.Errorf("description-only count = %d, want 0", got)
	}

	reply := ix.NewComment(description)
	reply.Text = "confirmed on my machine"
	if err := ix.Save(ctx, reply); err != nil {
		t.Fatal(err)
	}
	if got := ix.CommentCount(issue); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}

	// Event comments have no text: not counted, and replies hanging off
	// them stay invisible too.
	event := saveEventComment(t, ix, ctx, issue, ix.Account().ID, entity.EventResolved)
	hidden := ix.NewComment(event)
	hidden.Text = "reply under an event"
	if err := ix.Save(ctx, hidden); err != nil {
		t.Fatal(err)
	}
	if got := ix.CommentCount(issue); got != 1 {
		t.Errorf("count after event subtree = %d, want 1", got)
	}
}

func TestOwnersReplay(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "ownership")
	bob := saveUser(t, ix, ctx, "bob@test.local", "Bob")
	carol := saveUser(t, ix, ctx, "carol@test.local", "Carol")

	assign := func(user *entity.Entity, kind string) {
		comment := ix.NewComment(issue)
		comment.EventKind = kind
		comment.Assignee = user.ID
		if err := ix.Save(ctx, comment); err != nil {
			t.Fatal(err)
		}
	}

	assign(bob, entity.EventAssigned)
	assign(carol, entity.EventAssigned)
	assign(bob, entity.EventUnassigned)

	owners := ix.Owners(issue)
	if len(owners) != 1 || owners[0].ID != carol.ID {
		t.Errorf("owners = %v, want just Carol", owners)
	}
}

func TestResolutionConsensus(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "consensus")
	alice := ix.Account()
	bob := saveUser(t, ix, ctx, "bob@test.local", "Bob")

	votes, fraction := ix.Resolution(issue)
	if len(votes) != 0 || fraction != 0 {
		t.Fatalf("fresh issue resolution = %v %v", votes, fraction)
	}

	saveEventComment(t, ix, ctx, issue, alice.ID, entity.EventResolved)
	if _, fraction = ix.Resolution(issue); fraction != 1 {
		t.Errorf("single resolve fraction = %v, want 1", fraction)
	}

	saveEventComment(t, ix, ctx, issue, bob.ID, entity.EventReopened)
	votes, fraction = ix.Resolution(issue)
	if votes[alice.ID] != 1 || votes[bob.ID] != -1 {
		t.Errorf("votes = %v", votes)
	}
	if math.Abs(fraction-0.5) > 1e-9 {
		t.Errorf("split fraction = %v, want 0.5", fraction)
	}

	// Bob resolving again cancels his reopen, dropping him from the
	// tally entirely.
	saveEventComment(t, ix, ctx, issue, bob.ID, entity.EventResolved)
	votes, fraction = ix.Resolution(issue)
	if _, present := votes[bob.ID]; present {
		t.Errorf("cancelled voter still counted: %v", votes)
	}
	if fraction != 1 {
		t.Errorf("fraction = %v, want 1", fraction)
	}
}

func TestLabelWeightsReplay(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "labelling")
	alice := ix.Account()
	bob := saveUser(t, ix, ctx, "bob@test.local", "Bob")

	bug := ix.NewLabel()
	bug.Name = "bug"
	if err := ix.Save(ctx, bug); err != nil {
		t.Fatal(err)
	}

	labelEvent := func(author string, kind string) {
		comment := ix.NewComment(issue)
		comment.Author = author
		comment.EventKind = kind
		comment.Label = bug.ID
		if err := ix.Save(ctx, comment); err != nil {
			t.Fatal(err)
		}
	}

	labelEvent(alice.ID, entity.EventAddedLabel)
	labelEvent(bob.ID, entity.EventRemovedLabel)

	weights, userWeights := ix.LabelWeights(issue)
	if math.Abs(weights[bug.ID]-0.5) > 1e-9 {
		t.Errorf("weight = %v, want 0.5", weights[bug.ID])
	}
	if userWeights[bug.ID][alice.ID] != 1 || userWeights[bug.ID][bob.ID] != -1 {
		t.Errorf("user weights = %v", userWeights[bug.ID])
	}

	active := ix.ActiveLabels(issue)
	if len(active) != 1 || active[0].ID != bug.ID {
		t.Errorf("active labels = %v", active)
	}

	// Once everyone who added has removed, the label drops out of the
	// active set.
	labelEvent(alice.ID, entity.EventRemovedLabel)
	if active = ix.ActiveLabels(issue); len(active) != 0 {
		t.Errorf("active labels after removal = %v", active)
	}
}

func TestParticipants(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "participation")
	alice := ix.Account()
	bob := saveUser(t, ix, ctx, "bob@test.local", "Bob")

	// Bob participates through a nested reply under an event comment.
	event := saveEventComment(t, ix, ctx, issue, alice.ID, entity.EventResolved)
	nested := ix.NewComment(event)
	nested.Author = bob.ID
	nested.Text = "why was this closed?"
	if err := ix.Save(ctx, nested); err != nil {
		t.Fatal(err)
	}

	participants := ix.Participants(issue)
	if len(participants) != 2 {
		t.Fatalf("participants = %v, want alice and bob", participants)
	}
	if participants[alice.ID] == nil || participants[bob.ID] == nil {
		t.Errorf("participants unresolved: %v", participants)
	}
}

func TestRepresentationIssue(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "representation check")
	saveEventComment(t, ix, ctx, issue, ix.Account().ID, entity.EventResolved)

	rep := ix.Representation(issue)
	if rep["kind"] != "issue" || rep["title"] != "representation check" {
		t.Errorf("rep = %v", rep)
	}
	if rep["short_id"] != ix.ShortID(issue) {
		t.Errorf("short_id = %v", rep["short_id"])
	}
	if rep["slug"].(string) == "" {
		t.Error("empty slug")
	}
	if rep["new"] != false || rep["dirty"] != true {
		t.Errorf("new/dirty = %v/%v, want false/true for a staged issue", rep["new"], rep["dirty"])
	}
	if rep["resolved"].(float64) != 1 {
		t.Errorf("resolved = %v", rep["resolved"])
	}
	author, ok := rep["author"].(Rep)
	if !ok || author["email"] != "alice@test.local" {
		t.Errorf("author = %v", rep["author"])
	}
}

func TestRepresentationComment(t *testing.T) {
	t.Parallel()

	ix, ctx := newTestIndex(t)
	issue := saveIssue(t, ix, ctx, "parent title")
	rep, err := ix.SaveComment(ctx, map[string]string{"reply_to": issue.ID, "text": "hi"})
	if err != nil {
		t.Fatal(err)
	}

	if rep["reply_to"] != issue.ID {
		t.Errorf("reply_to = %v", rep["reply_to"])
	}
	if rep["reply_to_desc"] != "parent title" {
		t.Errorf("reply_to_desc = %v, want the parent's title", rep["reply_to_desc"])
	}
	if rep["text"] != "hi" {
		t.Errorf("text = %v", rep["text"])
	}
}
