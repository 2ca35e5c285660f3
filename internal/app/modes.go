package app

import (
	"geoquiz/internal/domain"
	"geoquiz/internal/round"
)

// ModeSpec ties a game mode to its round configuration: which field is
// the answer, where its distractors come from, and whether distractors
// must be verified against the pool.
type ModeSpec struct {
	KeyField          string
	DistractorKey     string
	VerifyDistractors bool
}

// Modes enumerates the supported game modes.
var Modes = map[string]ModeSpec{
	"flags":     {KeyField: "name", DistractorKey: "name_distractors", VerifyDistractors: true},
	"capitals":  {KeyField: "capital", DistractorKey: "capital_distractors", VerifyDistractors: true},
	"countries": {KeyField: "name", DistractorKey: "name_distractors", VerifyDistractors: false},
}

// RoundConfig builds the generator configuration for a game. Unknown
// modes fall back to name-keyed verified distractors.
func RoundConfig(game domain.Game) round.Config {
	spec, ok := Modes[game.Mode]
	if !ok {
		spec = Modes["flags"]
	}
	return round.Config{
		KeyField:          spec.KeyField,
		DistractorKey:     spec.DistractorKey,
		NumOptions:        game.Options.NumOptions,
		VerifyDistractors: spec.VerifyDistractors,
		TextEntry:         game.Options.Input == domain.InputTextEntry,
	}
}

// FilterPool restricts the catalog to the subject sets chosen by the host.
func FilterPool(catalog []domain.Country, sets []domain.CountryType) []domain.Country {
	want := make(map[domain.CountryType]struct{}, len(sets))
	for _, s := range sets {
		want[s] = struct{}{}
	}
	pool := make([]domain.Country, 0, len(catalog))
	for _, c := range catalog {
		if _, ok := want[c.Type]; ok {
			pool = append(pool, c)
		}
	}
	return pool
}
