package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"example.com/clubs/internal/catalog"
	"example.com/clubs/internal/domain"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	registry, err := domain.NewRegistry(catalog.Default())
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(domain.NewService(registry), zaptest.NewLogger(t)).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, activity, action, email string) *httptest.ResponseRecorder {
	t.Helper()
	target := fmt.Sprintf("/activities/%s/%s?email=%s", url.PathEscape(activity), action, url.QueryEscape(email))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func signup(t *testing.T, mux http.Handler, activity, email string) *httptest.ResponseRecorder {
	return do(t, mux, http.MethodPost, activity, "signup", email)
}

func unregister(t *testing.T, mux http.Handler, activity, email string) *httptest.ResponseRecorder {
	return do(t, mux, http.MethodDelete, activity, "unregister", email)
}

func listActivities(t *testing.T, mux http.Handler) map[string]ActivityView {
	t.Helper()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var out map[string]ActivityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestGetActivities(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.NotEmpty(t, raw)
	for _, activity := range raw {
		require.Contains(t, activity, "description")
		require.Contains(t, activity, "schedule")
		require.Contains(t, activity, "max_participants")
		require.IsType(t, []any{}, activity["participants"], "participants must be a JSON array, even when empty")
	}

	chess := listActivities(t, mux)["Chess Club"]
	require.Equal(t, 12, chess.MaxParticipants)
	require.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
}

func TestSignupForActivity(t *testing.T) {
	mux := newTestMux(t)

	rr := signup(t, mux, "Basketball Team", "test@student.edu")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, decodeBody(t, rr)["message"], "Signed up")

	require.Contains(t, listActivities(t, mux)["Basketball Team"].Participants, "test@student.edu")
}

func TestSignupDuplicate(t *testing.T) {
	mux := newTestMux(t)
	require.Equal(t, http.StatusOK, signup(t, mux, "Basketball Team", "test@student.edu").Code)

	rr := signup(t, mux, "Basketball Team", "test@student.edu")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	require.Contains(t, strings.ToLower(body["detail"]), "already signed up")
	require.Equal(t, "already_registered", body["type"])
}

func TestSignupNonexistentActivity(t *testing.T) {
	mux := newTestMux(t)

	rr := signup(t, mux, "NonExistent", "test@student.edu")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, strings.ToLower(decodeBody(t, rr)["detail"]), "not found")

	rr = signup(t, mux, "chess club", "test@student.edu")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignupRejectsMissingEmail(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/Chess%20Club/signup", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "validation_failed", decodeBody(t, rr)["type"])

	require.Len(t, listActivities(t, mux)["Chess Club"].Participants, 2)
}

func TestSignupUnknownActivityWithoutEmail(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/NonExistent/signup", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", decodeBody(t, rr)["type"])

	rr = signup(t, mux, "NonExistent", "not-an-email")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignupAcceptsNonEmailIdentifier(t *testing.T) {
	mux := newTestMux(t)

	rr := signup(t, mux, "Basketball Team", "Jane Doe")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "Signed up Jane Doe for Basketball Team", decodeBody(t, rr)["message"])
	require.Contains(t, listActivities(t, mux)["Basketball Team"].Participants, "Jane Doe")
}

func TestSignupUntilFull(t *testing.T) {
	mux := newTestMux(t)

	for i := 1; i <= 10; i++ {
		rr := signup(t, mux, "Chess Club", fmt.Sprintf("student%d@mergington.edu", i))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := signup(t, mux, "Chess Club", "student11@mergington.edu")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "capacity_reached", decodeBody(t, rr)["type"])
	require.Len(t, listActivities(t, mux)["Chess Club"].Participants, 12)
}

func TestUnregisterFromActivity(t *testing.T) {
	mux := newTestMux(t)
	require.Equal(t, http.StatusOK, signup(t, mux, "Basketball Team", "unregister@test.edu").Code)

	rr := unregister(t, mux, "Basketball Team", "unregister@test.edu")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, decodeBody(t, rr)["message"], "Unregistered")

	require.NotContains(t, listActivities(t, mux)["Basketball Team"].Participants, "unregister@test.edu")
}

func TestUnregisterNotSignedUp(t *testing.T) {
	mux := newTestMux(t)

	rr := unregister(t, mux, "Basketball Team", "notsignedup@test.edu")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, strings.ToLower(decodeBody(t, rr)["detail"]), "not signed up")
}

func TestUnregisterNonexistentActivity(t *testing.T) {
	mux := newTestMux(t)

	rr := unregister(t, mux, "NonExistent", "test@student.edu")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, strings.ToLower(decodeBody(t, rr)["detail"]), "not found")
}

func TestSignupUnregisterLifecycle(t *testing.T) {
	mux := newTestMux(t)

	require.Equal(t, http.StatusOK, signup(t, mux, "Basketball Team", "a@x.edu").Code)
	require.Equal(t, http.StatusBadRequest, signup(t, mux, "Basketball Team", "a@x.edu").Code)
	require.Equal(t, http.StatusOK, unregister(t, mux, "Basketball Team", "a@x.edu").Code)
	require.Equal(t, http.StatusBadRequest, unregister(t, mux, "Basketball Team", "a@x.edu").Code)
}

func TestWrongMethodIsRejected(t *testing.T) {
	mux := newTestMux(t)

	rr := do(t, mux, http.MethodGet, "Chess Club", "signup", "a@x.edu")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, mux, http.MethodPost, "Chess Club", "unregister", "a@x.edu")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRootRedirect(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	require.Contains(t, rr.Header().Get("Location"), "/static/index.html")
}

func TestStaticAssets(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/index.html", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rr.Body.String(), "Extracurricular Activities")

	for _, asset := range []string{"/static/app.js", "/static/styles.css"} {
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, asset, nil))
		require.Equal(t, http.StatusOK, rr.Code, asset)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
