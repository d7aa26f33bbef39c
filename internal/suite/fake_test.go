package suite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgricker/apiconform/internal/apiclient"
	"github.com/bgricker/apiconform/internal/harness"
	"github.com/bgricker/apiconform/internal/report"
)

// fakeAPI is an in-memory booking backend. With requireConfirm set, signin is
// rejected the way an unconfirmed Supabase account is. confirmed, when set,
// exempts matching emails from that rejection. Any token ever issued stays
// valid, whoever presents it.
type fakeAPI struct {
	requireConfirm bool
	confirmed      func(email string) bool

	mu     sync.Mutex
	users  map[string]string
	tokens map[string]string
	posted []string
}

func newFakeAPI(requireConfirm bool) *fakeAPI {
	return &fakeAPI{
		requireConfirm: requireConfirm,
		users:          make(map[string]string),
		tokens:         make(map[string]string),
	}
}

func (f *fakeAPI) start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	switch route {
	case "GET /health":
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "TrimTime API is running"})
	case "POST /auth/signup":
		var body struct{ Email, Password string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email and password are required"})
			return
		}
		f.posted = append(f.posted, body.Email)
		f.users[body.Email] = body.Password
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": fmt.Sprintf("user-%d", len(f.users)), "email": body.Email, "email_confirmed_at": nil},
		})
	case "POST /auth/signin":
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		pw, ok := f.users[body.Email]
		if !ok || pw != body.Password {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid login credentials"})
			return
		}
		if f.requireConfirm && (f.confirmed == nil || !f.confirmed(body.Email)) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email not confirmed"})
			return
		}
		token := "token-" + body.Email
		f.tokens[token] = body.Email
		writeJSON(w, http.StatusOK, map[string]any{
			"user":    map[string]any{"id": "user-" + body.Email},
			"session": map[string]any{"access_token": token},
		})
	case "POST /auth/signout":
		writeJSON(w, http.StatusOK, map[string]any{"message": "Signed out"})
	case "GET /auth/user":
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "me"}})
	case "GET /shops":
		writeJSON(w, http.StatusOK, map[string]any{"shops": []any{
			map[string]any{"id": "shop-1", "name": "Fade Factory"},
			map[string]any{"id": "shop-2", "name": "Clip Joint"},
		}})
	case "GET /bookings", "POST /bookings":
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": []any{}})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	}
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	_, ok := f.tokens[token]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func runSuite(t *testing.T, s Suite, baseURL string) *report.RunReport {
	t.Helper()
	client, err := apiclient.New(baseURL, apiclient.Options{})
	require.NoError(t, err)

	h := harness.New(harness.Options{Suite: s.Name, Target: baseURL, Delay: -1})
	require.NoError(t, h.RegisterAll(s.Cases(NewEnv(client))))
	return h.Run(context.Background())
}

func resultsByName(rep *report.RunReport) map[string]report.TestResult {
	out := make(map[string]report.TestResult, len(rep.Results))
	for _, res := range rep.Results {
		out[res.Name] = res
	}
	return out
}
