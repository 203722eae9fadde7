package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/repository"
)

type collected struct {
	events []string
	staff  []string
	err    error
}

type eventSink struct{ c *collected }

func (s eventSink) Create(_ context.Context, e *domain.EventRecord) error {
	if s.c.err != nil {
		return s.c.err
	}
	s.c.events = append(s.c.events, e.ID)
	return nil
}

type staffSink struct{ c *collected }

func (s staffSink) Create(_ context.Context, m *domain.Staff) error {
	s.c.staff = append(s.c.staff, m.ID)
	return nil
}

func TestDemoEvents_RaiseEveryRule(t *testing.T) {
	p := alerts.Project(repository.DemoEvents())

	fired := map[domain.RuleID]bool{}
	for _, a := range p.All() {
		fired[a.RuleID] = true
	}
	for _, rule := range alerts.Default {
		assert.True(t, fired[rule.ID], "rule %s should fire on demo data", rule.ID)
	}
	assert.Empty(t, p.ForEvent("evt-retreat"), "fully prepared event stays quiet")
}

func TestSeedDemo(t *testing.T) {
	c := &collected{}
	require.NoError(t, repository.SeedDemo(context.Background(), eventSink{c}, staffSink{c}))

	assert.Len(t, c.events, len(repository.DemoEvents()))
	assert.Len(t, c.staff, len(repository.DemoStaff()))
	assert.Equal(t, "evt-hartley", c.events[0])
}

func TestSeedDemo_PropagatesErrors(t *testing.T) {
	c := &collected{err: errors.New("duplicate key")}
	err := repository.SeedDemo(context.Background(), eventSink{c}, staffSink{c})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed event evt-hartley")
}
