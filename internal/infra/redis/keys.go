package redis

// Key schema shared by every client process. A game id owns five keys;
// DeleteGame must remove all of them.
const (
	lastActiveKey   = "last_active"
	recentEventsKey = "recent_events"
	catalogKey      = "catalog:countries"
)

func gameKey(gameID string) string {
	return "game:" + gameID
}

func playersKey(gameID string) string {
	return "game:" + gameID + ":players"
}

func stateKey(gameID string) string {
	return "game:" + gameID + ":state"
}

func roundKey(gameID string) string {
	return "game:" + gameID + ":round"
}

func answersKey(gameID string) string {
	return "game:" + gameID + ":answers"
}

func userKey(uid string) string {
	return "user:" + uid
}
