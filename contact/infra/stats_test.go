package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"contact-gateway/contact/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_CountsByOutcome(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Key: "1.1.1.1", Outcome: domain.OutcomeSent})
	_ = s.Record(ctx, domain.StatsEvent{Key: "1.1.1.1", Outcome: domain.OutcomeRateLimited})
	_ = s.Record(ctx, domain.StatsEvent{Key: "2.2.2.2", Outcome: domain.OutcomeThrottled, Method: "POST", Path: "/api/contact"})

	total := s.Total()
	assert.Equal(t, int64(1), total[domain.OutcomeSent])
	assert.Equal(t, int64(1), total[domain.OutcomeRateLimited])
	assert.Equal(t, int64(1), total[domain.OutcomeThrottled])

	assert.Equal(t, int64(1), s.ByRoute()["POST /api/contact"][domain.OutcomeThrottled])
	assert.Len(t, s.ByRoute(), 1, "gateway events carry no route")
	assert.Equal(t, int64(1), s.ByKey()["1.1.1.1"][domain.OutcomeRateLimited])
}

func TestMemoryStatsStore_SnapshotsAreCopies(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSent})

	snap := s.Total()
	snap[domain.OutcomeSent] = 99
	assert.Equal(t, int64(1), s.Total()[domain.OutcomeSent])
	assert.Empty(t, s.ByKey(), "keys are not tracked by default")
}

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, domain.StatsEvent) error { return f.err }

func TestMultiStats_FansOutAndJoinsErrors(t *testing.T) {
	mem := NewMemoryStatsStore()
	boom := errors.New("boom")
	m := MultiStats{mem, nil, failingStats{err: boom}}

	err := m.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeFailed})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), mem.Total()[domain.OutcomeFailed])
}

func TestRedisStatsStore_Record(t *testing.T) {
	mr, rdb := newMiniredis(t)
	s := NewRedisStatsStore(rdb,
		WithStatsPrefix("stats:"),
		WithStatsTTL(time.Hour),
		WithStatsBucket("minute"),
		WithStatsTrackKeys(true),
	)
	at := time.Date(2026, 3, 1, 12, 34, 0, 0, time.UTC)

	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{
		Key: "10.0.0.1", Outcome: domain.OutcomeThrottled, Method: "POST", Path: "/api/contact", At: at,
	}))
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{
		Key: "10.0.0.1", Outcome: domain.OutcomeSent, At: at,
	}))

	assert.Equal(t, "1", mr.HGet("stats:total", "throttled"))
	assert.Equal(t, "1", mr.HGet("stats:total", "sent"))
	assert.Equal(t, "1", mr.HGet("stats:minute:202603011234", "sent"))
	assert.Equal(t, time.Hour, mr.TTL("stats:minute:202603011234"))
	assert.Equal(t, "1", mr.HGet("stats:route", "POST /api/contact:throttled"))
	assert.Equal(t, "1", mr.HGet("stats:key:10.0.0.1", "sent"))
	assert.Equal(t, time.Duration(0), mr.TTL("stats:total"))
}

func TestRedisStatsStore_NilIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSent}))
}

type stubProvider struct {
	id  string
	err error
}

func (s stubProvider) Send(context.Context, domain.Message) (string, error) { return s.id, s.err }

func TestPrometheusStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusStats(reg)

	_ = p.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSent})
	_ = p.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeSent})
	_ = p.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeCircuitOpen})
	assert.Equal(t, 2.0, testutil.ToFloat64(p.outcomes.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.outcomes.WithLabelValues("circuit_open")))

	p.ObserveBreaker(domain.BreakerState{Open: true, Failures: 5})
	assert.Equal(t, 1.0, testutil.ToFloat64(p.breakerOpen))
	p.ObserveBreaker(domain.BreakerState{})
	assert.Equal(t, 0.0, testutil.ToFloat64(p.breakerOpen))

	ok := p.Instrument(stubProvider{id: "m1"})
	id, err := ok.Send(context.Background(), domain.Message{})
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	bad := p.Instrument(stubProvider{err: errors.New("down")})
	_, err = bad.Send(context.Background(), domain.Message{})
	assert.Error(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(p.sendDuration))
}
