package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent(kind StatType, value float64) GameEvent {
	return GameEvent{
		Version:  1,
		GameID:   "2024030100",
		TeamID:   "BOS",
		PlayerID: "jt0",
		Kind:     kind,
		Value:    value,
	}
}

func TestValidateValueRules(t *testing.T) {
	tests := []struct {
		name    string
		kind    StatType
		value   float64
		wantErr string // empty means valid
	}{
		{"point one", StatPoint, 1, ""},
		{"point two", StatPoint, 2, ""},
		{"point three", StatPoint, 3, ""},
		{"point zero", StatPoint, 0, "Points must be at least 1"},
		{"point four", StatPoint, 4, "Points cannot exceed 3"},
		{"point negative", StatPoint, -1, "Points must be at least 1"},
		{"point fractional", StatPoint, 1.5, "Points must be a whole number"},

		{"rebound one", StatRebound, 1, ""},
		{"rebound many", StatRebound, 14, ""},
		{"rebound zero", StatRebound, 0, "Rebounds must be at least 1"},
		{"rebound fractional", StatRebound, 2.5, "Rebounds must be a whole number"},

		{"assist one", StatAssist, 1, ""},
		{"assist zero", StatAssist, 0, "Assists must be at least 1"},

		{"steal one", StatSteal, 1, ""},
		{"steal fractional", StatSteal, 0.5, "Steals must be a whole number"},

		{"block one", StatBlock, 1, ""},
		{"block zero", StatBlock, 0, "Blocks must be at least 1"},

		{"turnover one", StatTurnover, 1, ""},
		{"turnover zero", StatTurnover, 0, "Turnovers must be at least 1"},

		{"foul one", StatFoul, 1, ""},
		{"foul six", StatFoul, 6, ""},
		{"foul zero", StatFoul, 0, "Fouls must be at least 1"},
		{"foul seven", StatFoul, 7, "Fouls cannot exceed 6"},
		{"foul fractional", StatFoul, 2.5, "Fouls must be a whole number"},

		{"minutes zero", StatMinutesPlayed, 0, ""},
		{"minutes full game", StatMinutesPlayed, 48, ""},
		{"minutes one decimal", StatMinutesPlayed, 36.1, ""},
		{"minutes negative", StatMinutesPlayed, -0.1, "Minutes played cannot be negative"},
		{"minutes over cap", StatMinutesPlayed, 48.1, "Minutes played cannot exceed 48"},
		{"minutes two decimals", StatMinutesPlayed, 12.34, "Minutes played can have at most 1 decimal place"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validEvent(tt.kind, tt.value).Validate()
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, "value", errs[0].Field)
			assert.Equal(t, tt.wantErr, errs[0].Message)
		})
	}
}

func TestValidateCommonFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*GameEvent)
		wantField string
	}{
		{"missing version", func(e *GameEvent) { e.Version = 0 }, "version"},
		{"negative version", func(e *GameEvent) { e.Version = -1 }, "version"},
		{"blank game id", func(e *GameEvent) { e.GameID = "" }, "gameId"},
		{"long game id", func(e *GameEvent) { e.GameID = "20240301001" }, "gameId"},
		{"non numeric game id", func(e *GameEvent) { e.GameID = "2024-03-01" }, "gameId"},
		{"blank team id", func(e *GameEvent) { e.TeamID = "" }, "teamId"},
		{"blank player id", func(e *GameEvent) { e.PlayerID = "" }, "playerId"},
		{"unknown kind", func(e *GameEvent) { e.Kind = "dunk" }, "event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent(StatPoint, 2)
			tt.mutate(&e)
			errs := e.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	e := GameEvent{Kind: StatPoint, Value: 9}
	errs := e.Validate()

	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"version", "gameId", "teamId", "playerId", "value"}, fields)
}

func TestDecode(t *testing.T) {
	payload := []byte(`{"version":1,"gameId":"2024030100","teamId":"BOS","playerId":"jt0","event":"point","value":3}`)

	e, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, validEvent(StatPoint, 3), e)
}

func TestDecodeUnknownDiscriminator(t *testing.T) {
	payload := []byte(`{"version":1,"gameId":"2024030100","teamId":"BOS","playerId":"jt0","event":"dunk","value":2}`)

	_, err := Decode(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stat type")
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := validEvent(StatMinutesPlayed, 36.1)

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestParseStatType(t *testing.T) {
	for _, s := range []string{"point", "rebound", "assist", "block", "steal", "turnover", "foul", "minutes_played"} {
		st, err := ParseStatType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(st))
	}

	_, err := ParseStatType("three_pointer")
	assert.Error(t, err)
}
