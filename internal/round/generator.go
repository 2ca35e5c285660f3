// Package round generates quiz rounds: it picks an answer entity from a
// pool and samples wrong answers (distractors) for it.
package round

import (
	"math/rand"

	"geoquiz/internal/domain"
)

// Config controls how a round is generated.
type Config struct {
	// KeyField is the answerable field, e.g. "name" or "capital".
	KeyField string
	// DistractorKey names the declared confusion list on the answer entity.
	DistractorKey string
	NumOptions    int
	// VerifyDistractors restricts distractors to pool entities named in the
	// answer's declared list; unverified mode uses the declared values directly.
	VerifyDistractors bool
	// TextEntry rounds carry no options at all.
	TextEntry bool
}

// Generate produces one round from the pool and returns the pool with the
// answer removed. The returned option set includes the answer's key-field
// value exactly once and is never larger than Config.NumOptions; it may be
// smaller when the distractor candidates run short. Ordering is unspecified.
func Generate(pool []domain.Country, cfg Config, rng *rand.Rand) (domain.Round, []domain.Country, error) {
	filtered := make([]domain.Country, 0, len(pool))
	for _, c := range pool {
		if c.Field(cfg.KeyField) != "" {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return domain.Round{}, nil, domain.ErrEmptyPool
	}

	idx := rng.Intn(len(filtered))
	answer := filtered[idx]
	remaining := make([]domain.Country, 0, len(filtered)-1)
	remaining = append(remaining, filtered[:idx]...)
	remaining = append(remaining, filtered[idx+1:]...)

	r := domain.Round{Answer: answer, KeyField: cfg.KeyField}
	if cfg.TextEntry {
		return r, remaining, nil
	}

	target := cfg.NumOptions - 1
	if target < 0 {
		target = 0
	}

	answerValue := answer.Field(cfg.KeyField)
	fallback := make([]string, 0, len(remaining))
	for _, c := range remaining {
		fallback = append(fallback, c.Field(cfg.KeyField))
	}

	var primary []string
	if cfg.VerifyDistractors {
		declared := make(map[string]struct{}, len(answer.DistractorList(cfg.DistractorKey)))
		for _, v := range answer.DistractorList(cfg.DistractorKey) {
			declared[v] = struct{}{}
		}
		for _, c := range remaining {
			if _, ok := declared[c.Field(cfg.KeyField)]; ok {
				primary = append(primary, c.Field(cfg.KeyField))
			}
		}
	} else {
		primary = answer.DistractorList(cfg.DistractorKey)
	}

	distractors := sampleWithFallback(primary, fallback, target, answerValue, rng)
	r.Options = append(distractors, answerValue)
	return r, remaining, nil
}

// sampleWithFallback draws up to target unique values without replacement,
// preferring primary candidates and topping up from fallback. The exclude
// value (the answer) is never drawn.
func sampleWithFallback(primary, fallback []string, target int, exclude string, rng *rand.Rand) []string {
	chosen := make([]string, 0, target)
	used := map[string]struct{}{exclude: {}, "": {}}
	draw := func(src []string) {
		for _, i := range rng.Perm(len(src)) {
			if len(chosen) >= target {
				return
			}
			v := src[i]
			if _, ok := used[v]; ok {
				continue
			}
			used[v] = struct{}{}
			chosen = append(chosen, v)
		}
	}
	draw(primary)
	draw(fallback)
	return chosen
}
