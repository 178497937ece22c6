package routes

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stackit/stackit/models"
)

func TestAnswerMissingQuestion(t *testing.T) {
	r, _ := newTestRouter(t)
	token := newUser(t, r, "eager")

	w := perform(t, r, http.MethodPost, "/ans/create", token, gin.H{
		"question_id": 4242,
		"content":     "answering into the void",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if env := decode(t, w); env.Code != 40404 {
		t.Fatalf("code %d", env.Code)
	}
}

func TestAnswerValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	token := newUser(t, r, "terse")
	id := askQuestion(t, r, token, "needs an answer", []string{"go"})

	w := perform(t, r, http.MethodPost, "/ans/create", token, gin.H{
		"question_id": id,
		"content":     "   ",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank content: status %d body %s", w.Code, w.Body.String())
	}
}

func TestVoteOnceOnly(t *testing.T) {
	r, _ := newTestRouter(t)
	author := newUser(t, r, "author")
	voter := newUser(t, r, "onevote")

	qid := askQuestion(t, r, author, "votable question", []string{"go"})
	aid := postAnswer(t, r, author, qid, "a fine answer")

	w := castVote(t, r, voter, aid)
	if w.Code != http.StatusOK {
		t.Fatalf("first vote: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		VoteCount int64 `json:"voteCount"`
	}
	decodeData(t, w, &data)
	if data.VoteCount != 1 {
		t.Fatalf("voteCount = %d, want 1", data.VoteCount)
	}

	w = castVote(t, r, voter, aid)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate vote: status %d body %s", w.Code, w.Body.String())
	}
	if env := decode(t, w); env.Code != 40041 {
		t.Fatalf("duplicate vote: code %d", env.Code)
	}

	// Count is unchanged after the rejected duplicate.
	detail := perform(t, r, http.MethodGet, fmt.Sprintf("/question/getQuestions/%d", qid), voter, nil)
	var dd struct {
		Question models.Question `json:"question"`
	}
	decodeData(t, detail, &dd)
	if len(dd.Question.Answers) != 1 || len(dd.Question.Answers[0].Votes) != 1 {
		t.Fatalf("unexpected vote state: %+v", dd.Question.Answers)
	}
}

func TestVotesAccumulateAcrossUsers(t *testing.T) {
	r, _ := newTestRouter(t)
	author := newUser(t, r, "writer")
	qid := askQuestion(t, r, author, "popular question", []string{"go"})
	aid := postAnswer(t, r, author, qid, "popular answer")

	var last int64
	for i := 0; i < 3; i++ {
		token := newUser(t, r, fmt.Sprintf("fan%d", i))
		w := castVote(t, r, token, aid)
		if w.Code != http.StatusOK {
			t.Fatalf("vote %d: status %d body %s", i, w.Code, w.Body.String())
		}
		var data struct {
			VoteCount int64 `json:"voteCount"`
		}
		decodeData(t, w, &data)
		last = data.VoteCount
	}
	if last != 3 {
		t.Fatalf("final voteCount = %d, want 3", last)
	}
}

func TestVoteMissingAnswer(t *testing.T) {
	r, _ := newTestRouter(t)
	token := newUser(t, r, "lost")

	w := castVote(t, r, token, 9999)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	w = perform(t, r, http.MethodPost, "/vote/not-a-number", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d body %s", w.Code, w.Body.String())
	}
}

func TestDeleteAnswerRemovesVotes(t *testing.T) {
	r, db := newTestRouter(t)
	author := newUser(t, r, "aowner")
	voter := newUser(t, r, "avoter")

	qid := askQuestion(t, r, author, "short-lived", []string{"go"})
	aid := postAnswer(t, r, author, qid, "short-lived answer")
	if w := castVote(t, r, voter, aid); w.Code != http.StatusOK {
		t.Fatalf("vote: status %d", w.Code)
	}

	path := fmt.Sprintf("/ans/%d", aid)
	if w := perform(t, r, http.MethodDelete, path, voter, nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: status %d", w.Code)
	}
	if w := perform(t, r, http.MethodDelete, path, author, nil); w.Code != http.StatusOK {
		t.Fatalf("owner delete: status %d body %s", w.Code, w.Body.String())
	}

	var votes int64
	db.Model(&models.Vote{}).Where("answer_id = ?", aid).Count(&votes)
	if votes != 0 {
		t.Fatalf("%d votes left after answer delete", votes)
	}
}

func TestAdminAllAnswers(t *testing.T) {
	r, db := newTestRouter(t)
	token := newUser(t, r, "poster")
	qid := askQuestion(t, r, token, "the question", []string{"go"})
	postAnswer(t, r, token, qid, "the answer")

	if w := perform(t, r, http.MethodGet, "/ans/admin/all", token, nil); w.Code != http.StatusForbidden {
		t.Fatalf("user role: status %d", w.Code)
	}

	if err := db.Model(&models.User{}).Where("username = ?", "poster").Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	adminToken := login(t, r, "poster@example.com", "password123")

	w := perform(t, r, http.MethodGet, "/ans/admin/all", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		TotalAnswers int `json:"totalAnswers"`
		Answers      []struct {
			Content       string `json:"content"`
			QuestionTitle string `json:"question_title"`
		} `json:"answers"`
	}
	decodeData(t, w, &data)
	if data.TotalAnswers != 1 || data.Answers[0].QuestionTitle != "the question" {
		t.Fatalf("unexpected admin answers: %+v", data)
	}
}
