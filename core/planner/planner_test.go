package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batterycare/core/knowledge"
	"github.com/kilianp07/batterycare/core/model"
	"github.com/kilianp07/batterycare/core/scheduler"
	"github.com/kilianp07/batterycare/infra/logger"
)

type stubEnricher struct {
	findings model.KnowledgeFindings
	err      error
	panics   bool
	block    bool
	calls    int
}

func (s *stubEnricher) Enrich(ctx context.Context, _ model.HealthInsight) (model.KnowledgeFindings, error) {
	s.calls++
	if s.panics {
		panic("index corrupted")
	}
	if s.block {
		<-ctx.Done()
		return model.KnowledgeFindings{}, ctx.Err()
	}
	return s.findings, s.err
}

type fakeRetriever struct {
	snippets []knowledge.Snippet
	err      error
	query    string
	k        int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]knowledge.Snippet, error) {
	f.query, f.k = query, k
	return f.snippets, f.err
}

func TestBaselineIsTotal(t *testing.T) {
	cases := []struct {
		status   model.HealthStatus
		action   string
		urgency  model.Urgency
		requires bool
	}{
		{model.StatusRapid, ActionRapid, model.UrgencyHigh, true},
		{model.StatusModerate, ActionModerate, model.UrgencyMedium, true},
		{model.StatusNormal, ActionNormal, model.UrgencyLow, false},
		{model.StatusUnknown, ActionUnknown, model.UrgencyUnknown, false},
		{model.HealthStatus("anything"), ActionUnknown, model.UrgencyUnknown, false},
		{model.HealthStatus(""), ActionUnknown, model.UrgencyUnknown, false},
	}
	for _, c := range cases {
		t.Run(string(c.status), func(t *testing.T) {
			p := Baseline(c.status)
			assert.Equal(t, c.action, p.Action)
			assert.Equal(t, c.urgency, p.Urgency)
			assert.Equal(t, c.requires, p.RequiresAppointment)
			assert.Equal(t, c.status, p.SourceStatus)
			assert.Nil(t, p.KnowledgeFindings)
		})
	}
}

func TestBaselineTriggersAgree(t *testing.T) {
	statuses := []model.HealthStatus{model.StatusRapid, model.StatusModerate, model.StatusNormal, model.StatusUnknown}
	for _, st := range statuses {
		p := Baseline(st)
		assert.Equal(t, scheduler.FlagTrigger{}.Needed(p), scheduler.KeywordTrigger{}.Needed(p), string(st))
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	p := New(logger.NopLogger{})
	ins := model.HealthInsight{Status: model.StatusModerate}
	first := p.Plan(context.Background(), ins)
	second := p.Plan(context.Background(), ins)
	assert.Equal(t, first, second)
	assert.False(t, p.Enriched())
}

func TestPlanAttachesFindings(t *testing.T) {
	e := &stubEnricher{findings: model.KnowledgeFindings{
		Procedures:    []model.Procedure{{Section: "4.2 Cell balancing", Summary: "Run BMS-101."}},
		RoutineIDs:    []string{"BMS-101"},
		SectionsFound: 1,
	}}
	p := New(nil, WithEnricher(e))
	plan := p.Plan(context.Background(), model.HealthInsight{Status: model.StatusRapid})
	require.NotNil(t, plan.KnowledgeFindings)
	assert.Equal(t, []string{"BMS-101"}, plan.KnowledgeFindings.RoutineIDs)
	assert.Equal(t, ActionRapid, plan.Action)
	assert.True(t, plan.RequiresAppointment)
	assert.Equal(t, 1, e.calls)
}

func TestPlanDegradesSilently(t *testing.T) {
	cases := map[string]*stubEnricher{
		"error": {err: errors.New("connection refused")},
		"panic": {panics: true},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			p := New(nil, WithEnricher(e))
			plan := p.Plan(context.Background(), model.HealthInsight{Status: model.StatusNormal})
			require.NotNil(t, plan.KnowledgeFindings)
			assert.True(t, plan.KnowledgeFindings.Empty())
			assert.Equal(t, Baseline(model.StatusNormal).Action, plan.Action)
			assert.Equal(t, model.UrgencyLow, plan.Urgency)
			assert.False(t, plan.RequiresAppointment)
		})
	}
}

func TestPlanEnrichmentTimeout(t *testing.T) {
	p := New(nil, WithEnricher(&stubEnricher{block: true}), WithTimeout(20*time.Millisecond))
	start := time.Now()
	plan := p.Plan(context.Background(), model.HealthInsight{Status: model.StatusModerate})
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NotNil(t, plan.KnowledgeFindings)
	assert.True(t, plan.KnowledgeFindings.Empty())
	assert.Equal(t, model.UrgencyMedium, plan.Urgency)
}

func TestEnrichErrorsAreCollaboratorUnavailable(t *testing.T) {
	p := New(nil, WithEnricher(&stubEnricher{err: errors.New("boom")}))
	_, err := p.enrich(context.Background(), model.HealthInsight{})
	assert.ErrorIs(t, err, model.ErrCollaboratorUnavailable)
}

func TestKnowledgeEnricher(t *testing.T) {
	r := &fakeRetriever{snippets: []knowledge.Snippet{
		{Section: "Cell balancing", Text: "Run routine BMS-101 then HV-22A."},
		{Section: "Thermal checks", Text: "Inspect coolant loop. See BMS-101."},
		{Section: "Cell balancing", Text: "Repeat after 24 hours."},
	}}
	e, err := NewKnowledgeEnricher(r, "", 0)
	require.NoError(t, err)

	ins := model.HealthInsight{Status: model.StatusRapid, LatestStateOfHealth: 91.2}
	f, err := e.Enrich(context.Background(), ins)
	require.NoError(t, err)
	assert.Equal(t, knowledge.DefaultMaxResults, r.k)
	assert.Equal(t, knowledge.BuildQuery(ins), r.query)
	assert.Len(t, f.Procedures, knowledge.MaxProcedures)
	assert.Equal(t, []string{"BMS-101", "HV-22A"}, f.RoutineIDs)
	assert.Equal(t, 2, f.SectionsFound)
}

func TestKnowledgeEnricherFailure(t *testing.T) {
	e, err := NewKnowledgeEnricher(&fakeRetriever{err: errors.New("index offline")}, "", 2)
	require.NoError(t, err)
	_, err = e.Enrich(context.Background(), model.HealthInsight{})
	assert.ErrorIs(t, err, model.ErrCollaboratorUnavailable)

	_, err = NewKnowledgeEnricher(nil, "", 2)
	assert.Error(t, err)
	_, err = NewKnowledgeEnricher(&fakeRetriever{}, "([", 2)
	assert.Error(t, err)
}
