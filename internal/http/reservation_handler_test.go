package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/court-scheduler/internal/application"
	"github.com/example/court-scheduler/internal/protocol"
)

func TestParseHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{raw: `10`, want: 10, ok: true},
		{raw: `10.0`, want: 10, ok: true},
		{raw: `"14"`, want: 14, ok: true},
		{raw: `" 9 "`, want: 9, ok: true},
		{raw: `-3`, want: -3, ok: true},
		{raw: `99`, want: 99, ok: true},
		{raw: `10.5`},
		{raw: `"10.5"`},
		{raw: `"ten"`},
		{raw: `true`},
		{raw: `null`},
		{raw: `[10]`},
		{raw: `{"h":10}`},
		{raw: `1e20`},
	}

	for _, tc := range tests {
		got, ok := parseHour(json.RawMessage(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.raw)
		}
	}
}

func TestJSONText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mon", jsonText(json.RawMessage(`"mon"`)))
	assert.Equal(t, "5", jsonText(json.RawMessage(`5`)))
	assert.Equal(t, "null", jsonText(json.RawMessage(` null `)))
}

func TestOutcomeStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, protocol.StatusOK, outcomeStatus(application.OutcomeOK))
	assert.Equal(t, protocol.StatusBadRequest, outcomeStatus(application.OutcomeInvalidDay))
	assert.Equal(t, protocol.StatusBadRequest, outcomeStatus(application.OutcomeInvalidHour))
	assert.Equal(t, protocol.StatusForbidden, outcomeStatus(application.OutcomeDailyLimit))
	assert.Equal(t, protocol.StatusConflict, outcomeStatus(application.OutcomeSlotTaken))
	assert.Equal(t, protocol.StatusNotFound, outcomeStatus(application.OutcomeNoReservation))
	assert.Equal(t, protocol.StatusInternalServerError, outcomeStatus(application.OutcomeKind(42)))
}
