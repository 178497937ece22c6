package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/stackit/stackit/config"
	"github.com/stackit/stackit/models"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	// Point the cache at a closed port so every cache call is a fast no-op.
	os.Setenv("REDIS_PORT", "1")
	config.Reset()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// envelope mirrors the uniform JSON response shape.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Question{}, &models.Answer{}, &models.Vote{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return SetupRouter(db), db
}

func perform(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, w)
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

// signup registers an account and fails the test on any error.
func signup(t *testing.T, r *gin.Engine, username, email, password string) {
	t.Helper()
	w := perform(t, r, http.MethodPost, "/auth/signup", "", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", username, w.Code, w.Body.String())
	}
}

// login returns the token for an existing account.
func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := perform(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var data struct {
		AuthToken string `json:"authToken"`
	}
	decodeData(t, w, &data)
	if data.AuthToken == "" {
		t.Fatalf("login %s: empty token", email)
	}
	return data.AuthToken
}

// newUser signs up and logs in a fresh account in one step.
func newUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	email := username + "@example.com"
	signup(t, r, username, email, "password123")
	return login(t, r, email, "password123")
}

// askQuestion posts a question and returns its id.
func askQuestion(t *testing.T, r *gin.Engine, token, title string, tags []string) uint {
	t.Helper()
	w := perform(t, r, http.MethodPost, "/question/askQuestion", token, gin.H{
		"title":       title,
		"description": "details about " + title,
		"tags":        tags,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("ask question: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		Question models.Question `json:"question"`
	}
	decodeData(t, w, &data)
	if data.Question.ID == 0 {
		t.Fatal("ask question: zero id")
	}
	return data.Question.ID
}

// postAnswer answers a question and returns the answer id.
func postAnswer(t *testing.T, r *gin.Engine, token string, questionID uint, content string) uint {
	t.Helper()
	w := perform(t, r, http.MethodPost, "/ans/create", token, gin.H{
		"question_id": questionID,
		"content":     content,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("post answer: status %d body %s", w.Code, w.Body.String())
	}
	var data struct {
		Answer models.Answer `json:"answer"`
	}
	decodeData(t, w, &data)
	if data.Answer.ID == 0 {
		t.Fatal("post answer: zero id")
	}
	return data.Answer.ID
}

// castVote votes on an answer and returns the response recorder.
func castVote(t *testing.T, r *gin.Engine, token string, answerID uint) *httptest.ResponseRecorder {
	t.Helper()
	return perform(t, r, http.MethodPost, fmt.Sprintf("/vote/%d", answerID), token, nil)
}
