package server

import (
	"net/http"
	"strconv"
	"testing"

	"bingo-night/internal/config"
)

func TestSessionLifecycleFlow(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	created := createSession(t, ts, "FRIDAY")
	if created["status"] != "waiting" {
		t.Fatalf("expected new session to be waiting, got %v", created["status"])
	}
	if created["mode"] != "hybrid" {
		t.Fatalf("expected default mode hybrid, got %v", created["mode"])
	}

	joined := joinSession(t, ts, "FRIDAY", "ada")
	board, ok := joined["board"].([]any)
	if !ok || len(board) != 25 {
		t.Fatalf("expected a 25-cell board in join response, got %v", joined["board"])
	}
	joinSession(t, ts, "FRIDAY", "grace")

	startSession(t, ts, "FRIDAY")

	drawn := map[float64]bool{}
	for i := 0; i < 5; i++ {
		resp := doRequest(t, ts, http.MethodPost, "/api/sessions/FRIDAY/draw", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("draw %d: expected status %d, got %d", i, http.StatusOK, resp.StatusCode)
		}
		body := decodeBody(t, resp)
		number, ok := body["number"].(float64)
		if !ok || number < 1 || number > 75 {
			t.Fatalf("draw %d: unexpected number %v", i, body["number"])
		}
		if drawn[number] {
			t.Fatalf("number %v drawn twice", number)
		}
		drawn[number] = true
		if body["letter"] == "" {
			t.Fatalf("draw %d: missing letter", i)
		}
	}

	snapshot := fetchSnapshot(t, ts, "FRIDAY")
	if snapshot["status"] != "active" {
		t.Fatalf("expected active session, got %v", snapshot["status"])
	}
	numbers, ok := snapshot["drawn_numbers"].([]any)
	if !ok || len(numbers) != 5 {
		t.Fatalf("expected 5 drawn numbers, got %v", snapshot["drawn_numbers"])
	}
	if snapshot["current_number"] != numbers[len(numbers)-1] {
		t.Fatalf("current number %v does not match last draw %v", snapshot["current_number"], numbers[len(numbers)-1])
	}
	players, ok := snapshot["players"].([]any)
	if !ok || len(players) != 2 {
		t.Fatalf("expected 2 players, got %v", snapshot["players"])
	}
}

func TestSessionLookupIsCaseInsensitive(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	createSession(t, ts, "MIXED")
	snapshot := fetchSnapshot(t, ts, "mixed")
	if snapshot["code"] != "MIXED" {
		t.Fatalf("expected canonical code MIXED, got %v", snapshot["code"])
	}
}

func TestEventsPolling(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	createSession(t, ts, "POLL")
	joinSession(t, ts, "POLL", "ada")
	startSession(t, ts, "POLL")

	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/POLL/events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	events, ok := body["events"].([]any)
	if !ok || len(events) == 0 {
		t.Fatalf("expected events after join and start, got %v", body["events"])
	}
	last := events[len(events)-1].(map[string]any)
	lastSeq := last["seq"].(float64)

	doRequest(t, ts, http.MethodPost, "/api/sessions/POLL/draw", nil)

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/POLL/events?after="+strconv.Itoa(int(lastSeq)), nil)
	body = decodeBody(t, resp)
	tail := body["events"].([]any)
	if len(tail) != 1 {
		t.Fatalf("expected exactly one new event, got %d", len(tail))
	}
	record := tail[0].(map[string]any)
	if record["type"] != "number_drawn" {
		t.Fatalf("expected number_drawn event, got %v", record["type"])
	}
	if record["seq"].(float64) != lastSeq+1 {
		t.Fatalf("expected seq %v, got %v", lastSeq+1, record["seq"])
	}
}

func TestEventsRejectsBadAfter(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	createSession(t, ts, "POLL2")
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/POLL2/events?after=banana", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestTriviaQuestionFlow(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{
		"code": "QUIZ",
		"mode": "trivia",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	joinSession(t, ts, "QUIZ", "ada")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/QUIZ/questions", map[string]any{
		"prompt":        "Largest planet?",
		"choices":       []string{"Mars", "Jupiter", "Venus"},
		"correct_index": 1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	index := decodeBody(t, resp)["index"].(float64)

	startSession(t, ts, "QUIZ")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/QUIZ/questions/open", map[string]any{
		"index": index,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	snapshot := decodeBody(t, resp)
	question, ok := snapshot["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected an open question in snapshot, got %v", snapshot["question"])
	}
	if _, leaked := question["correct_index"]; leaked {
		t.Fatal("snapshot leaked the correct answer index")
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/QUIZ/answers", map[string]any{
		"nickname": "ada",
		"index":    index,
		"choice":   1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	answer := decodeBody(t, resp)
	if answer["correct"] != true {
		t.Fatalf("expected a correct answer, got %v", answer)
	}
	if answer["points"].(float64) <= 0 {
		t.Fatalf("expected points for a correct answer, got %v", answer["points"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/QUIZ/questions/close", map[string]any{
		"index": index,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/QUIZ/answers", map[string]any{
		"nickname": "ada",
		"index":    index,
		"choice":   1,
	})
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expected status %d for a closed question, got %d", http.StatusGone, resp.StatusCode)
	}
}

func TestTeamEndpoints(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	createSession(t, ts, "TEAMS")
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/TEAMS/teams", map[string]any{
		"name":  "Red",
		"color": "#f00",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	team := decodeBody(t, resp)
	teamID := int(team["id"].(float64))

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/TEAMS/teams", map[string]any{
		"name": "red",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d for duplicate team name, got %d", http.StatusConflict, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/TEAMS/join", map[string]any{
		"nickname": "ada",
		"team_id":  teamID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodDelete, "/api/sessions/TEAMS/teams/"+strconv.Itoa(teamID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	snapshot := fetchSnapshot(t, ts, "TEAMS")
	players := snapshot["players"].([]any)
	if players[0].(map[string]any)["team_id"] != nil {
		t.Fatalf("expected team reference cleared after delete, got %v", players[0])
	}
}

func TestListSessions(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	resp := doRequest(t, ts, http.MethodGet, "/api/sessions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if sessions, ok := body["sessions"].([]any); !ok || len(sessions) != 0 {
		t.Fatalf("expected an empty listing, got %v", body["sessions"])
	}

	createSession(t, ts, "LOBBY2")
	createSession(t, ts, "LOBBY1")
	joinSession(t, ts, "LOBBY1", "ada")

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions", nil)
	body = decodeBody(t, resp)
	sessions := body["sessions"].([]any)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	first := sessions[0].(map[string]any)
	if first["code"] != "LOBBY1" || first["players"].(float64) != 1 {
		t.Fatalf("unexpected first summary: %v", first)
	}
	if first["status"] != "waiting" {
		t.Fatalf("expected waiting status, got %v", first["status"])
	}
}

func TestDeleteSession(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	defer ts.Close()

	createSession(t, ts, "GONE")
	resp := doRequest(t, ts, http.MethodDelete, "/api/sessions/GONE", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/GONE", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d after delete, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
