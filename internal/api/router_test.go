package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnhub_backend/internal/app/service"
	"learnhub_backend/internal/common/security"
	"learnhub_backend/internal/domain/repository"
	"learnhub_backend/internal/platform/config"
	"learnhub_backend/internal/platform/database"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:                  []byte("test-secret"),
		JWTExp:                  time.Hour,
		DefaultTestDurationMins: 30,
		TestViewCacheTTL:        time.Minute,
		CORSAllowedOrigins:      []string{"http://localhost:3000"},
	}
	security.InitJWT()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(ctx, "sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	authService := service.NewAuthService(repository.NewSQLUserRepository(db))
	testService := service.NewTestService(
		repository.NewSQLTestRepository(db),
		repository.NewSQLSubmissionRepository(db),
		nil,
		db,
	)

	srv := httptest.NewServer(NewRouter(authService, testService))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON posts (or gets) JSON with an optional bearer token and decodes the
// response body into a generic map.
func doJSON(t *testing.T, method, url, token string, body interface{}) (int, map[string]interface{}, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	decoded := map[string]interface{}{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded, raw
}

// signup registers a user and returns its id and token.
func signup(t *testing.T, srv *httptest.Server, username, role string) (string, string) {
	t.Helper()
	status, body, raw := doJSON(t, http.MethodPost, srv.URL+"/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret-pass",
		"role":     role,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup for %s failed with status %d: %s", username, status, raw)
	}
	user, _ := body["user"].(map[string]interface{})
	id, _ := user["id"].(string)
	token, _ := body["token"].(string)
	if id == "" || token == "" {
		t.Fatalf("signup for %s returned no id or token: %s", username, raw)
	}
	return id, token
}

func createTestPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":       "HTTP Basics",
		"description": "Quick check",
		"questions": []map[string]string{
			{"question_text": "Q1", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_option": "A"},
			{"question_text": "Q2", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_option": "B"},
			{"question_text": "Q3", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_option": "A"},
		},
	}
}

func TestFullTestLifecycleOverHTTP(t *testing.T) {
	srv := setupServer(t)

	_, teacherToken := signup(t, srv, "teacher1", "teacher")
	studentID, studentToken := signup(t, srv, "student1", "student")

	// Teacher creates the test.
	status, body, raw := doJSON(t, http.MethodPost, srv.URL+"/tests/create", teacherToken, createTestPayload())
	if status != http.StatusCreated {
		t.Fatalf("create test failed with status %d: %s", status, raw)
	}
	testID, _ := body["test_id"].(string)
	shareLink, _ := body["share_link"].(string)
	if testID == "" || shareLink == "" {
		t.Fatalf("create response missing test_id or share_link: %s", raw)
	}

	// Student fetches the test by share link; the answer key must not appear
	// anywhere in the payload.
	status, body, raw = doJSON(t, http.MethodGet, srv.URL+"/tests/"+shareLink, studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("fetch by link failed with status %d: %s", status, raw)
	}
	if bytes.Contains(raw, []byte("correct_option")) {
		t.Fatalf("take view leaks the answer key: %s", raw)
	}
	view, _ := body["test"].(map[string]interface{})
	questions, _ := view["questions"].([]interface{})
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions in view, got %d", len(questions))
	}
	qids := make([]string, 0, len(questions))
	for _, q := range questions {
		qm, _ := q.(map[string]interface{})
		id, _ := qm["id"].(string)
		qids = append(qids, id)
	}

	// Student submits; two of three answers are correct.
	status, body, raw = doJSON(t, http.MethodPost, srv.URL+"/tests/"+testID+"/submit", studentToken, map[string]interface{}{
		"answers":            map[string]string{qids[0]: "A", qids[1]: "C", qids[2]: "A"},
		"time_taken_seconds": 180,
	})
	if status != http.StatusCreated {
		t.Fatalf("submit failed with status %d: %s", status, raw)
	}
	if score, _ := body["score"].(float64); score != 2 {
		t.Fatalf("expected score 2, got %v", body["score"])
	}

	// Student reads back the graded result.
	status, body, raw = doJSON(t, http.MethodGet, srv.URL+"/tests/"+testID+"/result/"+studentID, studentToken, nil)
	if status != http.StatusOK {
		t.Fatalf("fetch result failed with status %d: %s", status, raw)
	}
	result, _ := body["result"].(map[string]interface{})
	if score, _ := result["score"].(float64); score != 2 {
		t.Fatalf("expected persisted score 2, got %v", result["score"])
	}
	answers, _ := body["answers"].([]interface{})
	if len(answers) != 3 {
		t.Fatalf("expected 3 answer rows, got %d", len(answers))
	}

	// Teacher lists the attempts.
	status, body, raw = doJSON(t, http.MethodGet, srv.URL+"/tests/"+testID+"/submissions", teacherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list submissions failed with status %d: %s", status, raw)
	}
	subs, _ := body["submissions"].([]interface{})
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission on record, got %d", len(subs))
	}
}

func TestRouteAuthorization(t *testing.T) {
	srv := setupServer(t)

	_, teacherToken := signup(t, srv, "teacher1", "teacher")
	studentID, studentToken := signup(t, srv, "student1", "student")
	_, otherStudentToken := signup(t, srv, "student2", "student")

	status, body, raw := doJSON(t, http.MethodPost, srv.URL+"/tests/create", teacherToken, createTestPayload())
	if status != http.StatusCreated {
		t.Fatalf("create test failed with status %d: %s", status, raw)
	}
	testID, _ := body["test_id"].(string)

	// Seed one attempt so result routes have something to protect.
	status, _, raw = doJSON(t, http.MethodPost, srv.URL+"/tests/"+testID+"/submit", studentToken, map[string]interface{}{
		"answers": map[string]string{},
	})
	if status != http.StatusCreated {
		t.Fatalf("seed submission failed with status %d: %s", status, raw)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{"create without token", http.MethodPost, "/tests/create", "", createTestPayload(), http.StatusUnauthorized},
		{"create as student", http.MethodPost, "/tests/create", studentToken, createTestPayload(), http.StatusForbidden},
		{"submit as teacher", http.MethodPost, "/tests/" + testID + "/submit", teacherToken, map[string]interface{}{"answers": map[string]string{}}, http.StatusForbidden},
		{"submit without token", http.MethodPost, "/tests/" + testID + "/submit", "", map[string]interface{}{"answers": map[string]string{}}, http.StatusUnauthorized},
		{"result of another student", http.MethodGet, "/tests/" + testID + "/result/" + studentID, otherStudentToken, nil, http.StatusForbidden},
		{"submissions as student", http.MethodGet, "/tests/" + testID + "/submissions", studentToken, nil, http.StatusForbidden},
		{"unknown share link", http.MethodGet, "/tests/no-such-link", studentToken, nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, _, raw := doJSON(t, tc.method, srv.URL+tc.path, tc.token, tc.body)
			if status != tc.want {
				t.Fatalf("expected status %d, got %d: %s", tc.want, status, raw)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", resp.StatusCode)
	}
}

func TestSignupRejectsAdminRole(t *testing.T) {
	srv := setupServer(t)

	status, _, raw := doJSON(t, http.MethodPost, srv.URL+"/auth/signup", "", map[string]string{
		"username": "sneaky",
		"email":    "sneaky@example.com",
		"password": "s3cret-pass",
		"role":     "admin",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected admin signup to be rejected with 400, got %d: %s", status, raw)
	}
}
