package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"geoquiz/internal/app"
	"geoquiz/internal/domain"
	"geoquiz/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func testCatalog() []domain.Country {
	names := []string{"France", "Belgium", "Italy", "Spain", "Germany"}
	catalog := make([]domain.Country, 0, len(names))
	for _, n := range names {
		catalog = append(catalog, domain.Country{Name: n, Type: domain.TypeNation})
	}
	for i := range catalog {
		for _, other := range names {
			if other != catalog[i].Name {
				catalog[i].NameDistractors = append(catalog[i].NameDistractors, other)
			}
		}
	}
	return catalog
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	games := memory.NewGameStore()
	presence := memory.NewPresenceStore()
	events := memory.NewEventLog(10)
	catalog := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(testCatalog()), time.Minute)

	lobby := app.NewLobbyService(games, events)
	gameSvc := app.NewGameService(games, events)
	sessions := app.NewSessionService(games, presence, events, 20*time.Minute, 5*time.Minute)
	handler := NewWSHandler(lobby, gameSvc, sessions, catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, uid, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?uid=" + uid + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type reply struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func request(t *testing.T, conn *websocket.Conn, msgType string, payload any) reply {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
	var r reply
	if err := conn.ReadJSON(&r); err != nil {
		t.Fatalf("read reply to %s: %v", msgType, err)
	}
	return r
}

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)

	host := dial(t, server, "u1", "Alice")
	player := dial(t, server, "u2", "Bob")

	// host creates a lobby
	created := request(t, host, "create_game", map[string]any{
		"game_mode": "flags",
		"options": map[string]any{
			"sets":        []string{"nation"},
			"input":       "multiple_choice",
			"num_options": 4,
			"num_rounds":  2,
		},
	})
	if created.Type != "game_created" {
		t.Fatalf("expected game_created, got %s %s", created.Type, created.Payload)
	}
	var ref struct {
		GameID string `json:"game_id"`
	}
	if err := json.Unmarshal(created.Payload, &ref); err != nil || ref.GameID == "" {
		t.Fatalf("bad game_created payload: %s", created.Payload)
	}

	// player sees the lobby via poll and joins
	state := request(t, player, "poll", map[string]any{"game_mode": "flags"})
	var snap struct {
		Lobbies []domain.LobbySummary `json:"lobbies"`
	}
	if err := json.Unmarshal(state.Payload, &snap); err != nil {
		t.Fatalf("bad state payload: %v", err)
	}
	if len(snap.Lobbies) != 1 || snap.Lobbies[0].HostName != "Alice" {
		t.Fatalf("expected Alice's lobby listed, got %+v", snap.Lobbies)
	}

	if r := request(t, player, "join_game", ref); r.Type != "joined" {
		t.Fatalf("expected joined, got %s %s", r.Type, r.Payload)
	}
	request(t, host, "set_ready", map[string]any{"game_id": ref.GameID, "ready": true})
	request(t, player, "set_ready", map[string]any{"game_id": ref.GameID, "ready": true})

	// non-host cannot start
	if r := request(t, player, "start_game", ref); r.Type != "error" {
		t.Fatalf("expected error for non-host start, got %s", r.Type)
	}
	if r := request(t, host, "start_game", ref); r.Type != "game_started" {
		t.Fatalf("expected game_started, got %s %s", r.Type, r.Payload)
	}

	// both now see the published round
	state = request(t, player, "poll", map[string]any{"game_id": ref.GameID})
	var view struct {
		Game struct {
			Game  domain.Game   `json:"game"`
			Round *domain.Round `json:"round"`
		} `json:"game"`
	}
	if err := json.Unmarshal(state.Payload, &view); err != nil {
		t.Fatalf("bad game snapshot: %v", err)
	}
	if view.Game.Game.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", view.Game.Game.Status)
	}
	if view.Game.Round == nil || len(view.Game.Round.Options) != 4 {
		t.Fatalf("expected a 4-option round, got %+v", view.Game.Round)
	}

	// player answers correctly, host scores
	correct := view.Game.Round.CorrectValue()
	if r := request(t, player, "answer", map[string]any{"game_id": ref.GameID, "value": correct}); r.Type != "answer_recorded" {
		t.Fatalf("expected answer_recorded, got %s", r.Type)
	}
	scored := request(t, host, "score_round", ref)
	if scored.Type != "scores" {
		t.Fatalf("expected scores, got %s %s", scored.Type, scored.Payload)
	}
	var scores map[string]int
	if err := json.Unmarshal(scored.Payload, &scores); err != nil {
		t.Fatalf("bad scores payload: %v", err)
	}
	if scores["u2"] != 1 || scores["u1"] != 0 {
		t.Fatalf("unexpected scores: %v", scores)
	}

	// two rounds configured: first advance publishes, second finishes
	if r := request(t, host, "next_round", ref); r.Type != "round_published" {
		t.Fatalf("expected round_published, got %s %s", r.Type, r.Payload)
	}
	if r := request(t, host, "next_round", ref); r.Type != "game_finished" {
		t.Fatalf("expected game_finished, got %s %s", r.Type, r.Payload)
	}
}

func TestWebSocketRejectsMissingIdentity(t *testing.T) {
	server := newTestServer(t)
	u := "ws" + server.URL[len("http"):] + "/ws?uid=u1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without name")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}
