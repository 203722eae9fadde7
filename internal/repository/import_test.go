package repository_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/repository"
)

const exportedEvents = `[
  {
    "id": 1042,
    "name": "Hartley Wedding",
    "days_until": "2",
    "special_handling_note": "Severe nut allergy",
    "special_handling_acknowledged": "checked",
    "food_must_go_hot": 1,
    "kitchen_hot_hold_confirmed": "no",
    "beo_finalized": "yes"
  },
  {
    "id": "evt-offsite",
    "name": "Tech Offsite",
    "days_until": "soon",
    "kitchen_notes": {"text": "swap rice"},
    "ops_acknowledged": null
  }
]`

func TestLoadEvents_LenientValues(t *testing.T) {
	records, err := repository.LoadEvents(strings.NewReader(exportedEvents))
	require.NoError(t, err)
	require.Len(t, records, 2)

	hartley := records[0]
	assert.Equal(t, "1042", hartley.ID)
	require.NotNil(t, hartley.DaysUntil)
	assert.Equal(t, 2, *hartley.DaysUntil)
	assert.True(t, bool(hartley.SpecialHandlingAcknowledged))
	assert.True(t, bool(hartley.FoodMustGoHot))
	assert.False(t, bool(hartley.KitchenHotHoldConfirmed))
	assert.True(t, bool(hartley.BEOFinalized))

	offsite := records[1]
	assert.Nil(t, offsite.DaysUntil)
	assert.True(t, offsite.KitchenNotes.Present())
	assert.False(t, bool(offsite.OpsAcknowledged))
}

func TestLoadEvents_FeedsTheRules(t *testing.T) {
	records, err := repository.LoadEvents(strings.NewReader(exportedEvents))
	require.NoError(t, err)

	p := alerts.Project(records)

	rules := func(eventID string) []domain.RuleID {
		var ids []domain.RuleID
		for _, a := range p.ForEvent(eventID) {
			ids = append(ids, a.RuleID)
		}
		return ids
	}
	assert.Contains(t, rules("1042"), domain.RuleHotHold)
	assert.NotContains(t, rules("1042"), domain.RuleSpecialHandling)
	assert.Contains(t, rules("evt-offsite"), domain.RuleKitchenNotes)
}

func TestLoadEvents_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "not an array", input: `{"id": "E1"}`, wantErr: "decode event records"},
		{name: "missing id", input: `[{"name": "No Id"}]`, wantErr: "event record 0: missing id"},
		{name: "null id", input: `[{"id": "E1"}, {"id": null}]`, wantErr: "event record 1: missing id"},
		{name: "duplicate id", input: `[{"id": "E1"}, {"id": "E1"}]`, wantErr: `duplicate id "E1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repository.LoadEvents(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEventsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(exportedEvents), 0o600))

	records, err := repository.LoadEventsFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = repository.LoadEventsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "open events file")
}
