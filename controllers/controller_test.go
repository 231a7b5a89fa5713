package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"soulmatch_server/models"
	"soulmatch_server/routes"
	"soulmatch_server/services"
	"soulmatch_server/testutil"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*mux.Router, *testutil.MemStore) {
	store := testutil.NewMemStore()
	r := mux.NewRouter()
	routes.RegisterRoutes(r)
	routes.RegisterProfileRoutes(r, &services.ProfileService{Store: store})
	routes.RegisterMatchRoutes(r, &services.MatchService{Store: store})
	routes.RegisterActionRoutes(r, &services.ActionService{Store: store})
	routes.RegisterConnectionRoutes(r, &services.ConnectionService{Store: store})
	routes.RegisterChatRoutes(r, &services.ChatService{Store: store})
	return r, store
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func createProfile(t *testing.T, r *mux.Router, userID, gender, preference string) models.Profile {
	t.Helper()
	rec := doJSON(t, r, "POST", "/api/profiles", map[string]string{
		"userId":     userID,
		"emailId":    userID + "@example.com",
		"gender":     gender,
		"preference": preference,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var profile models.Profile
	decodeBody(t, rec, &profile)
	return profile
}

func TestProfileEndpoints(t *testing.T) {
	r, _ := newTestRouter()

	created := createProfile(t, r, "alice", models.GenderFemale, models.GenderMale)
	assert.Equal(t, models.ProfileStatusInPool, created.Status)

	rec := doJSON(t, r, "POST", "/api/profiles", map[string]string{
		"userId": "alice", "gender": models.GenderFemale, "preference": models.GenderMale,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, "POST", "/api/profiles", map[string]string{
		"userId": "eve", "gender": "unknown", "preference": models.GenderMale,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, "GET", "/api/profiles/alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, "GET", "/api/profiles/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, "PATCH", "/api/profiles/alice", map[string]string{"introText": "hi"})
	require.Equal(t, http.StatusOK, rec.Code)
	var patched models.Profile
	decodeBody(t, rec, &patched)
	assert.Equal(t, "hi", patched.IntroText)

	rec = doJSON(t, r, "PATCH", "/api/profiles/alice", map[string]string{"status": models.ProfileStatusChatting})
	assert.Equal(t, http.StatusConflict, rec.Code, "lifecycle fields are not client-writable")

	rec = doJSON(t, r, "GET", "/api/profiles/pool/counts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts models.PoolCounts
	decodeBody(t, rec, &counts)
	assert.Equal(t, 1, counts.FemaleCount)
}

func TestMatchCandidateEndpoint(t *testing.T) {
	r, _ := newTestRouter()
	createProfile(t, r, "alice", models.GenderFemale, models.GenderMale)
	createProfile(t, r, "bob", models.GenderMale, models.GenderFemale)

	rec := doJSON(t, r, "GET", "/api/match/candidate?userId=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Candidate *models.Profile `json:"candidate"`
	}
	decodeBody(t, rec, &response)
	require.NotNil(t, response.Candidate)
	assert.Equal(t, "alice", response.Candidate.UserID)

	// Drain the pool: alice leaves no one for bob after status changes.
	r2, _ := newTestRouter()
	createProfile(t, r2, "bob", models.GenderMale, models.GenderFemale)
	rec = doJSON(t, r2, "GET", "/api/match/candidate?userId=bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &response)
	assert.Nil(t, response.Candidate, "empty pool is a null candidate, not an error")
}

// TestMatchingLifecycleEndToEnd walks the full happy path over HTTP: mutual
// like, both confirmations, chat, teardown.
func TestMatchingLifecycleEndToEnd(t *testing.T) {
	r, _ := newTestRouter()
	createProfile(t, r, "alice", models.GenderFemale, models.GenderMale)
	createProfile(t, r, "bob", models.GenderMale, models.GenderFemale)

	rec := doJSON(t, r, "POST", "/api/actions", map[string]string{
		"userId": "alice", "targetUserId": "bob", "action": "like",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var result services.ActionResult
	decodeBody(t, rec, &result)
	assert.False(t, result.Matched)

	rec = doJSON(t, r, "POST", "/api/actions", map[string]string{
		"userId": "bob", "targetUserId": "alice", "action": "like",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &result)
	require.True(t, result.Matched)
	connID := result.ConnectionID
	require.NotEmpty(t, connID)

	rec = doJSON(t, r, "GET", "/api/connections/active?userId=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conn models.Connection
	decodeBody(t, rec, &conn)
	assert.Equal(t, connID, conn.ID)
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)

	// Chat is closed until both sides confirm.
	rec = doJSON(t, r, "POST", "/api/chat/message", map[string]string{
		"connectionId": connID, "senderId": "alice", "text": "hello?",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, userID := range []string{"alice", "bob"} {
		rec = doJSON(t, r, "POST", fmt.Sprintf("/api/connections/%s/confirm", connID), map[string]interface{}{
			"userId": userID, "interested": true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	var confirm services.ConfirmResult
	decodeBody(t, rec, &confirm)
	assert.Equal(t, services.OutcomeChatting, confirm.Outcome)

	rec = doJSON(t, r, "POST", "/api/chat/message", map[string]string{
		"connectionId": connID, "senderId": "alice", "text": "hey bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, "GET", "/api/chat/messages?connectionId="+connID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages []models.Message
	decodeBody(t, rec, &messages)
	require.Len(t, messages, 1)
	assert.Equal(t, "hey bob", messages[0].Text)

	rec = doJSON(t, r, "POST", fmt.Sprintf("/api/connections/%s/end", connID), map[string]string{
		"userId": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &conn)
	assert.Equal(t, models.ConnectionStatusEnded, conn.Status)

	rec = doJSON(t, r, "GET", "/api/profiles/alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var alice models.Profile
	decodeBody(t, rec, &alice)
	assert.Equal(t, models.ProfileStatusInPool, alice.Status, "teardown returns both users to the pool")
}

func TestConnectionEndpointErrors(t *testing.T) {
	r, store := newTestRouter()
	createProfile(t, r, "alice", models.GenderFemale, models.GenderMale)
	createProfile(t, r, "bob", models.GenderMale, models.GenderFemale)
	doJSON(t, r, "POST", "/api/actions", map[string]string{"userId": "alice", "targetUserId": "bob", "action": "like"})
	doJSON(t, r, "POST", "/api/actions", map[string]string{"userId": "bob", "targetUserId": "alice", "action": "like"})
	conns := store.ConnectionsForPair("alice", "bob")
	require.Len(t, conns, 1)
	connID := conns[0].ID

	rec := doJSON(t, r, "POST", fmt.Sprintf("/api/connections/%s/end", connID), map[string]string{"userId": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code, "pending connections cannot be ended directly")

	rec = doJSON(t, r, "POST", fmt.Sprintf("/api/connections/%s/confirm", connID), map[string]string{"userId": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "interested flag is required")

	rec = doJSON(t, r, "POST", "/api/connections/no-such-id/confirm", map[string]interface{}{
		"userId": "alice", "interested": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
