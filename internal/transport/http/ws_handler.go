package http

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"

	"geoquiz/internal/app"
	"geoquiz/internal/domain"
	"geoquiz/internal/round"
	"github.com/gorilla/websocket"
)

// WSHandler wires client sessions into the sync layer. Each connection
// belongs to one user; the client drives everything by polling, there is
// no server-initiated push beyond replies to poll messages.
type WSHandler struct {
	lobby    *app.LobbyService
	games    *app.GameService
	sessions *app.SessionService
	catalog  app.CatalogRepository
	upgrader websocket.Upgrader
}

func NewWSHandler(lobby *app.LobbyService, games *app.GameService, sessions *app.SessionService, catalog app.CatalogRepository) *WSHandler {
	return &WSHandler{
		lobby:    lobby,
		games:    games,
		sessions: sessions,
		catalog:  catalog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type pollPayload struct {
	GameID string `json:"game_id"`
	Mode   string `json:"game_mode"`
}

type createGamePayload struct {
	Mode    string             `json:"game_mode"`
	Options domain.GameOptions `json:"options"`
}

type gameRefPayload struct {
	GameID string `json:"game_id"`
}

type readyPayload struct {
	GameID string `json:"game_id"`
	Ready  bool   `json:"ready"`
}

type answerPayload struct {
	GameID string `json:"game_id"`
	Value  string `json:"value"`
}

type stateView struct {
	RoundIndex int   `json:"round_index"`
	NumOptions int   `json:"num_options"`
	NumRounds  int   `json:"num_rounds"`
	PoolSize   int   `json:"pool_size"`
	StartedAt  int64 `json:"started_at"`
}

type gameView struct {
	Game     domain.Game              `json:"game"`
	Players  map[string]domain.Player `json:"players"`
	AllReady bool                     `json:"all_ready"`
	Round    *domain.Round            `json:"round,omitempty"`
	State    *stateView               `json:"state,omitempty"`
	Answers  map[string]string        `json:"answers,omitempty"`
}

type snapshot struct {
	Lobbies []domain.LobbySummary `json:"lobbies"`
	Game    *gameView             `json:"game,omitempty"`
	Events  []domain.Event        `json:"events"`
}

// ServeWS upgrades the request and runs the per-session command loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	name := r.URL.Query().Get("name")
	if uid == "" || name == "" {
		http.Error(w, "missing uid or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if err := h.sessions.RegisterUser(ctx, uid, name); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	seen := app.NewSeenSet()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		reply, err := h.dispatch(ctx, uid, name, seen, rng, inbound)
		if err != nil {
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, uid, name string, seen *app.SeenSet, rng *rand.Rand, inbound inboundMessage) (outboundMessage[any], error) {
	switch inbound.Type {
	case "poll":
		var p pollPayload
		_ = json.Unmarshal(inbound.Payload, &p)
		snap, err := h.poll(ctx, uid, seen, p)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "state", Payload: snap}, nil

	case "create_game":
		var p createGamePayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		gameID, err := h.lobby.CreateGame(ctx, uid, name, p.Mode, p.Options)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "game_created", Payload: gameRefPayload{GameID: gameID}}, nil

	case "join_game":
		var p gameRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		if err := h.lobby.JoinGame(ctx, p.GameID, uid, name); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "joined", Payload: gameRefPayload{GameID: p.GameID}}, nil

	case "set_ready":
		var p readyPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		if err := h.lobby.SetReady(ctx, p.GameID, uid, p.Ready); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "ready_set", Payload: p}, nil

	case "start_game":
		var p gameRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		if err := h.startGame(ctx, p.GameID, uid, rng); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "game_started", Payload: p}, nil

	case "answer":
		var p answerPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		if err := h.games.SubmitAnswer(ctx, p.GameID, uid, p.Value); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "answer_recorded", Payload: gameRefPayload{GameID: p.GameID}}, nil

	case "score_round":
		var p gameRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		scores, err := h.scoreRound(ctx, p.GameID, uid)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "scores", Payload: scores}, nil

	case "next_round":
		var p gameRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		finished, err := h.nextRound(ctx, p.GameID, uid, rng)
		if err != nil {
			return outboundMessage[any]{}, err
		}
		if finished {
			return outboundMessage[any]{Type: "game_finished", Payload: p}, nil
		}
		return outboundMessage[any]{Type: "round_published", Payload: p}, nil

	case "reset_game":
		var p gameRefPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil {
			return outboundMessage[any]{}, err
		}
		if err := h.games.ResetGame(ctx, p.GameID, uid); err != nil {
			return outboundMessage[any]{}, err
		}
		return outboundMessage[any]{Type: "game_reset", Payload: p}, nil

	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}, nil
	}
}

// poll is the client's reconcile step: heartbeat, drain new events, and
// snapshot whatever shared state the client is looking at.
func (h *WSHandler) poll(ctx context.Context, uid string, seen *app.SeenSet, p pollPayload) (snapshot, error) {
	if err := h.sessions.Heartbeat(ctx, uid); err != nil {
		return snapshot{}, err
	}
	events, err := h.sessions.DrainNewEvents(ctx, uid, seen)
	if err != nil {
		return snapshot{}, err
	}
	lobbies, err := h.lobby.ListLobbies(ctx, p.Mode)
	if err != nil {
		return snapshot{}, err
	}
	snap := snapshot{Lobbies: lobbies, Events: events}
	if p.GameID != "" {
		view, ok, err := h.gameView(ctx, p.GameID)
		if err != nil {
			return snapshot{}, err
		}
		if ok {
			snap.Game = &view
		}
	}
	return snap, nil
}

func (h *WSHandler) gameView(ctx context.Context, gameID string) (gameView, bool, error) {
	game, ok, err := h.games.Game(ctx, gameID)
	if err != nil || !ok {
		return gameView{}, false, err
	}
	roster, err := h.games.RosterSnapshot(ctx, gameID)
	if err != nil {
		return gameView{}, false, err
	}
	allReady, err := h.lobby.AllReady(ctx, gameID)
	if err != nil {
		return gameView{}, false, err
	}
	view := gameView{Game: game, Players: roster, AllReady: allReady}
	if r, ok, err := h.games.CurrentRound(ctx, gameID); err != nil {
		return gameView{}, false, err
	} else if ok {
		view.Round = &r
	}
	if st, ok, err := h.games.State(ctx, gameID); err != nil {
		return gameView{}, false, err
	} else if ok {
		view.State = &stateView{
			RoundIndex: st.RoundIndex,
			NumOptions: st.NumOptions,
			NumRounds:  st.NumRounds,
			PoolSize:   len(st.Pool),
			StartedAt:  st.StartedAt,
		}
	}
	if answers, err := h.games.CollectAnswers(ctx, gameID); err != nil {
		return gameView{}, false, err
	} else if len(answers) > 0 {
		view.Answers = answers
	}
	return view, true, nil
}

// startGame runs the host's start flow: filter the catalog down to the
// chosen subject sets, seed the shared state, and publish round one.
func (h *WSHandler) startGame(ctx context.Context, gameID, uid string, rng *rand.Rand) error {
	game, ok, err := h.games.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrGameNotFound
	}
	catalog, err := h.catalog.GetCatalog(ctx)
	if err != nil {
		return err
	}
	pool := app.FilterPool(catalog, game.Options.Sets)
	if err := h.lobby.StartGame(ctx, gameID, uid, pool, game.Options.NumOptions, game.Options.NumRounds); err != nil {
		return err
	}
	return h.publishNextRound(ctx, game, uid, pool, rng)
}

func (h *WSHandler) scoreRound(ctx context.Context, gameID, uid string) (map[string]int, error) {
	current, ok, err := h.games.CurrentRound(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]int{}, nil
	}
	return h.games.AwardScores(ctx, gameID, uid, current.CorrectValue())
}

// nextRound advances the shared round index and either publishes the
// next round or finishes the game when rounds or pool are exhausted.
func (h *WSHandler) nextRound(ctx context.Context, gameID, uid string, rng *rand.Rand) (finished bool, err error) {
	game, ok, err := h.games.Game(ctx, gameID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrGameNotFound
	}
	state, ok, err := h.games.AdvanceRound(ctx, gameID)
	if err != nil || !ok {
		return false, err
	}
	if state.RoundIndex >= state.NumRounds || len(state.Pool) == 0 {
		return true, h.games.FinishGame(ctx, gameID, uid)
	}
	return false, h.publishNextRound(ctx, game, uid, state.Pool, rng)
}

func (h *WSHandler) publishNextRound(ctx context.Context, game domain.Game, uid string, pool []domain.Country, rng *rand.Rand) error {
	r, remaining, err := round.Generate(pool, app.RoundConfig(game), rng)
	if err != nil {
		return err
	}
	if err := h.games.PublishRound(ctx, game.ID, uid, r); err != nil {
		return err
	}
	return h.games.UpdatePool(ctx, game.ID, uid, remaining)
}
