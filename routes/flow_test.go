package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stackit/stackit/models"
)

// TestFullQuestionLifecycle walks the happy path end to end: two users, one
// question, one answer, one vote, a rejected duplicate, then a cascade delete.
func TestFullQuestionLifecycle(t *testing.T) {
	r, db := newTestRouter(t)

	alice := newUser(t, r, "flow_alice")
	bob := newUser(t, r, "flow_bob")

	qid := askQuestion(t, r, alice, "How do I share state between goroutines?", []string{"go", "concurrency"})
	aid := postAnswer(t, r, bob, qid, "Don't share memory; communicate over channels.")

	w := castVote(t, r, alice, aid)
	if w.Code != http.StatusOK {
		t.Fatalf("vote: status %d body %s", w.Code, w.Body.String())
	}
	var voteData struct {
		VoteCount int64 `json:"voteCount"`
	}
	decodeData(t, w, &voteData)
	if voteData.VoteCount != 1 {
		t.Fatalf("voteCount = %d, want 1", voteData.VoteCount)
	}

	if w = castVote(t, r, alice, aid); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate vote: status %d body %s", w.Code, w.Body.String())
	}

	// Bob answered but does not own the question, so he cannot delete it.
	path := fmt.Sprintf("/question/%d", qid)
	if w = perform(t, r, http.MethodDelete, path, bob, nil); w.Code != http.StatusForbidden {
		t.Fatalf("answerer delete: status %d body %s", w.Code, w.Body.String())
	}

	if w = perform(t, r, http.MethodDelete, path, alice, nil); w.Code != http.StatusOK {
		t.Fatalf("owner delete: status %d body %s", w.Code, w.Body.String())
	}

	if w = perform(t, r, http.MethodGet, fmt.Sprintf("/question/getQuestions/%d", qid), alice, nil); w.Code != http.StatusNotFound {
		t.Fatalf("deleted question fetch: status %d", w.Code)
	}
	var answers, votes int64
	db.Model(&models.Answer{}).Where("id = ?", aid).Count(&answers)
	db.Model(&models.Vote{}).Where("answer_id = ?", aid).Count(&votes)
	if answers != 0 || votes != 0 {
		t.Fatalf("cascade left %d answers, %d votes", answers, votes)
	}
}
