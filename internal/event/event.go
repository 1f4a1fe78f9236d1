// Package event defines the game event model shared by the ingestion and
// processing sides. A GameEvent is a tagged union: the `event` field selects
// the stat kind and each kind carries its own value rule. Validation runs at
// the transport boundary: nothing downstream sees an invalid event.
package event

import (
	"encoding/json"
	"fmt"
	"math"
)

// StatType discriminates the game event variants.
type StatType string

const (
	StatPoint         StatType = "point"
	StatRebound       StatType = "rebound"
	StatAssist        StatType = "assist"
	StatBlock         StatType = "block"
	StatSteal         StatType = "steal"
	StatTurnover      StatType = "turnover"
	StatFoul          StatType = "foul"
	StatMinutesPlayed StatType = "minutes_played"
)

// ParseStatType converts a discriminator string to its StatType.
func ParseStatType(s string) (StatType, error) {
	t := StatType(s)
	if _, ok := valueRules[t]; !ok {
		return "", fmt.Errorf("unknown stat type: %q", s)
	}
	return t, nil
}

// GameEvent is a single recorded game statistic.
type GameEvent struct {
	Version  int64    `json:"version"`
	GameID   string   `json:"gameId"`
	TeamID   string   `json:"teamId"`
	PlayerID string   `json:"playerId"`
	Kind     StatType `json:"event"`
	Value    float64  `json:"value"`
}

// FieldError names a field that failed validation and why.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// maxGameIDLen keeps game identifiers short enough to embed in cache keys.
const maxGameIDLen = 10

// valueRules maps each stat kind to its value check. The map doubles as the
// registry of known discriminators.
var valueRules = map[StatType]func(float64) string{
	StatPoint:         wholeNumberRange("Points", 1, 3),
	StatRebound:       atLeastOneWhole("Rebounds"),
	StatAssist:        atLeastOneWhole("Assists"),
	StatBlock:         atLeastOneWhole("Blocks"),
	StatSteal:         atLeastOneWhole("Steals"),
	StatTurnover:      atLeastOneWhole("Turnovers"),
	StatFoul:          wholeNumberRange("Fouls", 1, 6),
	StatMinutesPlayed: minutesPlayedRule,
}

// Validate checks the event against the common and per-kind rules. An empty
// result means the event is acceptable.
func (e GameEvent) Validate() []FieldError {
	var errs []FieldError

	if e.Version < 1 {
		errs = append(errs, FieldError{"version", "Version must be greater than 0"})
	}
	if e.GameID == "" {
		errs = append(errs, FieldError{"gameId", "Game ID is required"})
	} else if len(e.GameID) > maxGameIDLen {
		errs = append(errs, FieldError{"gameId", fmt.Sprintf("Game ID must be at most %d characters", maxGameIDLen)})
	} else if !allDigits(e.GameID) {
		errs = append(errs, FieldError{"gameId", "Game ID must be numeric (YYYYMMDDGGG)"})
	}
	if e.TeamID == "" {
		errs = append(errs, FieldError{"teamId", "Team ID is required"})
	}
	if e.PlayerID == "" {
		errs = append(errs, FieldError{"playerId", "Player ID is required"})
	}

	rule, ok := valueRules[e.Kind]
	if !ok {
		errs = append(errs, FieldError{"event", fmt.Sprintf("Unknown event type: %q", string(e.Kind))})
		return errs
	}
	if msg := rule(e.Value); msg != "" {
		errs = append(errs, FieldError{"value", msg})
	}
	return errs
}

// Decode parses a JSON payload into a GameEvent. An unknown discriminator is
// a decode error, not a validation error; the variant must resolve before
// any per-kind rule can apply.
func Decode(data []byte) (GameEvent, error) {
	var e GameEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return GameEvent{}, fmt.Errorf("decode game event: %w", err)
	}
	if _, err := ParseStatType(string(e.Kind)); err != nil {
		return GameEvent{}, fmt.Errorf("decode game event: %w", err)
	}
	return e, nil
}

// Encode serializes the event for the stream payload.
func (e GameEvent) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode game event: %w", err)
	}
	return data, nil
}

// --------------------------------------------------------------------------
// Value rules
// --------------------------------------------------------------------------

func wholeNumberRange(name string, lo, hi float64) func(float64) string {
	return func(v float64) string {
		if !isWhole(v) {
			return name + " must be a whole number"
		}
		if v < lo {
			return fmt.Sprintf("%s must be at least %d", name, int(lo))
		}
		if v > hi {
			return fmt.Sprintf("%s cannot exceed %d", name, int(hi))
		}
		return ""
	}
}

func atLeastOneWhole(name string) func(float64) string {
	return func(v float64) string {
		if !isWhole(v) {
			return name + " must be a whole number"
		}
		if v < 1 {
			return name + " must be at least 1"
		}
		return ""
	}
}

// minutesPlayedRule allows 0–48 minutes with at most one decimal place.
func minutesPlayedRule(v float64) string {
	if v < 0 {
		return "Minutes played cannot be negative"
	}
	if v > 48 {
		return "Minutes played cannot exceed 48"
	}
	if !nearWhole(v * 10) {
		return "Minutes played can have at most 1 decimal place"
	}
	return ""
}

func isWhole(v float64) bool {
	return v == math.Trunc(v)
}

// nearWhole tolerates the float drift introduced by the decimal shift
// (36.1*10 is not exactly 361).
func nearWhole(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
