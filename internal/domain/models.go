package domain

import "time"

// CountryType partitions the catalog into selectable subject sets.
type CountryType string

const (
	TypeNation    CountryType = "nation"
	TypeTerritory CountryType = "territory"
	TypeUSState   CountryType = "us_state"
)

// Country is an immutable catalog entity: the quiz subject plus the
// per-field lists of plausible confusions used as wrong answers.
type Country struct {
	Name               string      `json:"name"`
	Capital            string      `json:"capital"`
	Code               string      `json:"code"`
	Type               CountryType `json:"type"`
	FlagImage          string      `json:"flag_image"`
	NameDistractors    []string    `json:"name_distractors,omitempty"`
	CapitalDistractors []string    `json:"capital_distractors,omitempty"`
}

// Field returns the value of a named answerable field, or "" if the
// field is unknown.
func (c Country) Field(name string) string {
	switch name {
	case "name":
		return c.Name
	case "capital":
		return c.Capital
	case "code":
		return c.Code
	}
	return ""
}

// DistractorList returns the declared confusion list for a distractor key.
func (c Country) DistractorList(key string) []string {
	switch key {
	case "name_distractors":
		return c.NameDistractors
	case "capital_distractors":
		return c.CapitalDistractors
	}
	return nil
}

// User is a connected player profile. The uid is client-generated and
// unauthenticated; the profile lives until the presence sweep evicts it.
type User struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// GameStatus is one-directional: lobby -> in_progress -> finished.
type GameStatus string

const (
	StatusLobby      GameStatus = "lobby"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// InputMode selects how players answer a round.
type InputMode string

const (
	InputMultipleChoice InputMode = "multiple_choice"
	InputTextEntry      InputMode = "text_entry"
)

// GameOptions are chosen by the host when creating a lobby.
type GameOptions struct {
	Sets       []CountryType `json:"sets"`
	Input      InputMode     `json:"input"`
	NumOptions int           `json:"num_options"`
	NumRounds  int           `json:"num_rounds"`
}

// Game is the lobby/game record stored under game:{id}.
type Game struct {
	ID        string      `json:"game_id"`
	HostUID   string      `json:"host_uid"`
	Mode      string      `json:"game_mode"`
	Status    GameStatus  `json:"status"`
	Options   GameOptions `json:"options"`
	CreatedAt int64       `json:"created_at"`
}

// Player is one roster entry under game:{id}:players.
type Player struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Score int    `json:"score"`
}

// LobbySummary is the joined view returned by lobby listing.
type LobbySummary struct {
	GameID   string      `json:"game_id"`
	Mode     string      `json:"game_mode"`
	HostName string      `json:"host_name"`
	Options  GameOptions `json:"options"`
}

// GameState is the host-owned progress record under game:{id}:state.
// LastScoredRound guards against scoring the same round twice; -1 means
// no round has been scored yet.
type GameState struct {
	Pool            []Country `json:"pool"`
	NumOptions      int       `json:"num_options"`
	NumRounds       int       `json:"num_rounds"`
	RoundIndex      int       `json:"round_index"`
	LastScoredRound int       `json:"last_scored_round"`
	StartedAt       int64     `json:"started_at"`
}

// Round is the current question payload under game:{id}:round. Options
// hold field values (not entities); empty for text-entry games.
type Round struct {
	Answer   Country  `json:"answer"`
	Options  []string `json:"options"`
	KeyField string   `json:"key_field"`
}

// CorrectValue is the string a submitted answer is compared against.
func (r Round) CorrectValue() string {
	return r.Answer.Field(r.KeyField)
}

// Event kinds pushed to the shared log.
const (
	EventPlayerJoined      = "player_joined"
	EventPlayerLeft        = "player_left"
	EventGameCreated       = "game_created"
	EventPlayerJoinedLobby = "player_joined_lobby"
	EventPlayerReady       = "player_ready"
	EventGameStarted       = "game_started"
	EventRoundPublished    = "round_published"
	EventRoundScored       = "round_scored"
	EventGameFinished      = "game_finished"
)

// Event is one entry in the bounded recent_events log. Timestamp is
// stamped at push time, epoch seconds.
type Event struct {
	Kind      string `json:"event"`
	UID       string `json:"uid,omitempty"`
	Name      string `json:"name,omitempty"`
	GameID    string `json:"game_id,omitempty"`
	GameMode  string `json:"game_mode,omitempty"`
	HostUID   string `json:"host_uid,omitempty"`
	HostName  string `json:"host_name,omitempty"`
	Ready     bool   `json:"ready,omitempty"`
	Correct   string `json:"correct,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Age reports how old the event is relative to now.
func (e Event) Age(now time.Time) time.Duration {
	return now.Sub(time.Unix(e.Timestamp, 0))
}
