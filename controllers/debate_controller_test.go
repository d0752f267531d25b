package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"debatehub/config"
	"debatehub/db"
	"debatehub/middlewares"
	"debatehub/models"
	"debatehub/services"
	"debatehub/structs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter wires the debate handlers behind a middleware that takes the
// caller identity from request headers, standing in for the auth layer.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, c.GetHeader("X-Test-User"))
		c.Set(middlewares.ContextUserName, c.GetHeader("X-Test-Name"))
	})
	r.POST("/api/debates/create", CreateDebate)
	r.POST("/api/debates/join/:roomId", JoinDebate)
	r.POST("/api/debates/observe/:roomId", ObserveDebate)
	r.GET("/api/debates/room/:roomId", GetRoom)
	r.POST("/api/debates/end/:roomId", EndDebate)
	r.GET("/api/debates/details/:roomId", GetDebateDetails)
	r.POST("/api/debates/analyze/:roomId", AnalyzeDebate)
	r.GET("/api/debates/history", GetHistory)
	return r
}

func newTestStore() *db.MockDebateStore {
	store := db.NewMockDebateStore()
	db.Debates = store
	return store
}

func initScoring(url string) {
	cfg := &config.Config{}
	cfg.AI.URL = url
	services.InitScoringService(cfg)
}

func performRequest(t *testing.T, r *gin.Engine, method, path string, body any, userID, name string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Name", name)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createRoom(t *testing.T, r *gin.Engine, userID, name string, req structs.CreateDebateRequest) string {
	t.Helper()
	w := performRequest(t, r, http.MethodPost, "/api/debates/create", req, userID, name)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	roomID, ok := body["roomId"].(string)
	require.True(t, ok, "response missing roomId")
	return roomID
}

func TestCreateDebateValidation(t *testing.T) {
	newTestStore()
	r := testRouter()

	w := performRequest(t, r, http.MethodPost, "/api/debates/create",
		structs.CreateDebateRequest{Topic: ""}, "u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/create",
		structs.CreateDebateRequest{Topic: "hey"}, "u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/create",
		structs.CreateDebateRequest{Topic: "    ab    "}, "u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDebateEnrollsCreator(t *testing.T) {
	store := newTestStore()
	r := testRouter()

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, debate.Status)
	assert.Equal(t, "team", debate.Type)
	assert.Equal(t, 4, debate.MaxParticipantsA)
	assert.Equal(t, 4, debate.MaxParticipantsB)
	require.Len(t, debate.Participants, 1)
	assert.Equal(t, "u1", debate.Participants[0].UserID)
	assert.Equal(t, "Alice", debate.Participants[0].DisplayName)
	assert.Equal(t, models.TeamA, debate.Participants[0].Team)
}

func TestCreateOneVsOneCapsTeams(t *testing.T) {
	store := newTestStore()
	r := testRouter()

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{
		Topic: "Cats are better than dogs", Type: "one-vs-one", MaxParticipantsA: 9, MaxParticipantsB: 9,
	})

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, 1, debate.MaxParticipantsA)
	assert.Equal(t, 1, debate.MaxParticipantsB)
}

func TestJoinDebate(t *testing.T) {
	store := newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	// Unknown room.
	w := performRequest(t, r, http.MethodPost, "/api/debates/join/missing",
		structs.JoinDebateRequest{}, "u2", "Bob")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// "teamB" is normalized to team B.
	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "teamB"}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "B", decodeBody(t, w)["team"])

	// Joining twice is rejected and the roster is unchanged.
	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "A"}, "u2", "Bob")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	require.Len(t, debate.Participants, 2)

	// An unrecognized team falls back to A.
	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "purple"}, "u3", "Carol")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A", decodeBody(t, w)["team"])
}

func TestJoinPromotesObserver(t *testing.T) {
	store := newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	w := performRequest(t, r, http.MethodPost, "/api/debates/observe/"+roomID,
		structs.ObserveDebateRequest{}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "B"}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.True(t, debate.IsParticipant("u2"))
	assert.False(t, debate.IsObserver("u2"), "user must not hold both roles")
	assert.Empty(t, debate.Observers)
}

func TestObserveDebate(t *testing.T) {
	newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	// A participant cannot also observe.
	w := performRequest(t, r, http.MethodPost, "/api/debates/observe/"+roomID,
		structs.ObserveDebateRequest{}, "u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/observe/"+roomID,
		structs.ObserveDebateRequest{}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	// Observing twice is rejected.
	w = performRequest(t, r, http.MethodPost, "/api/debates/observe/"+roomID,
		structs.ObserveDebateRequest{}, "u2", "Bob")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinEnforcesTeamCapacity(t *testing.T) {
	newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{
		Topic: "Resolved: capacity matters", MaxParticipantsA: 1, MaxParticipantsB: 1,
	})

	w := performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "B"}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	// Team A already holds the creator, team B is now full.
	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "A"}, "u3", "Carol")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "full")

	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "B"}, "u4", "Dave")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRoom(t *testing.T) {
	newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	w := performRequest(t, r, http.MethodGet, "/api/debates/room/missing", nil, "u1", "Alice")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, r, http.MethodGet, "/api/debates/room/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Should AI teach?", body["topic"])
	assert.Equal(t, models.StatusWaiting, body["status"])
}

func TestEndDebate(t *testing.T) {
	store := newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	endReq := structs.EndDebateRequest{Arguments: []models.Argument{
		{UserID: "u1", Team: "A", Message: "solid point"},
		{UserID: "", Team: "A", Message: "dropped, no user"},
		{UserID: "u1", Team: "A", Message: "   "},
	}}

	// Observers cannot end the debate.
	w := performRequest(t, r, http.MethodPost, "/api/debates/observe/"+roomID,
		structs.ObserveDebateRequest{}, "u9", "Olga")
	require.Equal(t, http.StatusOK, w.Code)
	w = performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID, endReq, "u9", "Olga")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/end/missing", endReq, "u1", "Alice")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID, endReq, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, debate.Status)
	require.NotNil(t, debate.EndedAt)
	// Malformed transcript entries are dropped, not rejected wholesale.
	require.Len(t, debate.Arguments, 1)
	assert.Equal(t, "solid point", debate.Arguments[0].Message)

	// Ending is one-way: a second end fails and leaves the transcript alone.
	w = performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID,
		structs.EndDebateRequest{Arguments: []models.Argument{{UserID: "u1", Team: "A", Message: "late extra"}}},
		"u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	debate, err = store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	require.Len(t, debate.Arguments, 1)
	assert.Equal(t, "solid point", debate.Arguments[0].Message)

	// A finished room rejects new participants.
	w = performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "B"}, "u5", "Eve")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDebateDetailsRequiresMembership(t *testing.T) {
	newTestStore()
	r := testRouter()
	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	w := performRequest(t, r, http.MethodGet, "/api/debates/details/"+roomID, nil, "u2", "Bob")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(t, r, http.MethodGet, "/api/debates/details/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, roomID, decodeBody(t, w)["roomId"])
}

func TestAnalyzeValidation(t *testing.T) {
	newTestStore()
	r := testRouter()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()
	initScoring(server.URL)

	w := performRequest(t, r, http.MethodPost, "/api/debates/analyze/missing", nil, "u1", "Alice")
	assert.Equal(t, http.StatusNotFound, w.Code)

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	// Outsiders cannot request analysis.
	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u2", "Bob")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An empty transcript is rejected before the gateway is ever called.
	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u1", "Alice")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), calls.Load())
}

func TestAnalyzeUnconfiguredGatewayStoresPendingSentinel(t *testing.T) {
	store := newTestStore()
	r := testRouter()
	initScoring("")

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})
	w := performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID,
		structs.EndDebateRequest{Arguments: []models.Argument{{UserID: "u1", Team: "A", Message: "one"}}},
		"u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code, "misconfiguration is not a transport error")

	body := decodeBody(t, w)
	result := body["result"].(map[string]any)
	assert.Equal(t, models.WinnerAnalysisPending, result["winner"])
	assert.Equal(t, 0.0, result["score_team_a"])
	assert.Equal(t, 0.0, result["score_team_b"])

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.WinnerAnalysisPending, debate.Winner)
	assert.Equal(t, 0.0, debate.ScoreTeamA)
	assert.Equal(t, 0.0, debate.ScoreTeamB)
}

func TestAnalyzeFailureThenRetry(t *testing.T) {
	store := newTestStore()
	r := testRouter()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()
	initScoring(broken.URL)

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})
	w := performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID,
		structs.EndDebateRequest{Arguments: []models.Argument{{UserID: "u1", Team: "A", Message: "one"}}},
		"u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code, "gateway failure is downgraded to a sentinel")
	result := decodeBody(t, w)["result"].(map[string]any)
	assert.Equal(t, models.WinnerAnalysisFailed, result["winner"])

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.WinnerAnalysisFailed, debate.Winner)

	// Retry goes through the identical path and overwrites the sentinel.
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"winner":        "Team A",
			"justification": "Clearer reasoning",
			"score_team_a":  7,
			"score_team_b":  5,
		})
	}))
	defer working.Close()
	initScoring(working.URL)

	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "AI re-analysis complete", body["message"])

	debate, err = store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, "Team A", debate.Winner)
	assert.Equal(t, 7.0, debate.ScoreTeamA)
	assert.Equal(t, 5.0, debate.ScoreTeamB)
}

func TestHistoryListsFinishedDebatesNewestFirst(t *testing.T) {
	store := newTestStore()
	r := testRouter()

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	seed := []models.Debate{
		{
			RoomID: "old-room", Topic: "Old topic here", Status: models.StatusFinished, EndedAt: &older,
			Participants: []models.Participant{{UserID: "u1", Team: models.TeamA}},
		},
		{
			RoomID: "new-room", Topic: "New topic here", Status: models.StatusFinished, EndedAt: &newer,
			Observers: []models.Observer{{UserID: "u1"}},
		},
		{
			RoomID: "open-room", Topic: "Still running", Status: models.StatusWaiting,
			Participants: []models.Participant{{UserID: "u1", Team: models.TeamA}},
		},
		{
			RoomID: "other-room", Topic: "Not involved", Status: models.StatusFinished, EndedAt: &newer,
			Participants: []models.Participant{{UserID: "u2", Team: models.TeamA}},
		},
	}
	for i := range seed {
		require.NoError(t, store.CreateDebate(context.Background(), &seed[i]))
	}

	w := performRequest(t, r, http.MethodGet, "/api/debates/history", nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)

	var debates []models.Debate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &debates))
	require.Len(t, debates, 2)
	assert.Equal(t, "new-room", debates[0].RoomID)
	assert.Equal(t, "old-room", debates[1].RoomID)
}

// TestFullDebateLifecycle runs the whole flow: create, join, end with a
// two-entry transcript, then analyze against a stubbed judge.
func TestFullDebateLifecycle(t *testing.T) {
	store := newTestStore()
	r := testRouter()

	judge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			DebateID string            `json:"DebateId"`
			Topic    string            `json:"topic"`
			Args     []models.Argument `json:"arguments"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
		assert.Equal(t, "Should AI teach?", payload.Topic)
		assert.Len(t, payload.Args, 2)
		json.NewEncoder(w).Encode(map[string]any{
			"winner":        "Team A",
			"justification": "Better arguments",
			"score_team_a":  7,
			"score_team_b":  5,
		})
	}))
	defer judge.Close()
	initScoring(judge.URL)

	roomID := createRoom(t, r, "u1", "Alice", structs.CreateDebateRequest{Topic: "Should AI teach?"})

	w := performRequest(t, r, http.MethodPost, "/api/debates/join/"+roomID,
		structs.JoinDebateRequest{Team: "B"}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	transcript := []models.Argument{
		{UserID: "u1", Team: "A", Message: "AI personalizes learning"},
		{UserID: "u2", Team: "B", Message: "Teachers build trust"},
	}
	w = performRequest(t, r, http.MethodPost, "/api/debates/end/"+roomID,
		structs.EndDebateRequest{Arguments: transcript}, "u2", "Bob")
	require.Equal(t, http.StatusOK, w.Code)

	debate, err := store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, debate.Status)
	require.Len(t, debate.Arguments, 2)

	w = performRequest(t, r, http.MethodPost, "/api/debates/analyze/"+roomID, nil, "u1", "Alice")
	require.Equal(t, http.StatusOK, w.Code)

	debate, err = store.Debate(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, "Team A", debate.Winner)
	assert.Equal(t, "Better arguments", debate.Justification)
	assert.Equal(t, 7.0, debate.ScoreTeamA)
	assert.Equal(t, 5.0, debate.ScoreTeamB)
}
