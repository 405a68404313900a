package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/betting/repo"
	"github.com/diodzi/gthacks-backend/pkg/contracts/events"
)

type fakeSettler struct {
	calls    int
	failures int
	notFound bool
	sum      repo.Summary
}

func (f *fakeSettler) SettleBet(_ context.Context, _ string, _ float64) (repo.Summary, error) {
	f.calls++
	if f.notFound {
		return repo.Summary{}, repo.ErrBetNotFound
	}
	if f.calls <= f.failures {
		return repo.Summary{}, errors.New("deadlock detected")
	}
	return f.sum, nil
}

type fakePublisher struct {
	events []events.BetSettled
}

func (f *fakePublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	f.events = append(f.events, e)
	return nil
}

type fakeBroadcaster struct {
	channels []string
	payloads [][]byte
}

func (f *fakeBroadcaster) Publish(_ context.Context, channel string, payload []byte) error {
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeDeadLetter struct {
	keys     []string
	payloads [][]byte
}

func (f *fakeDeadLetter) Send(_ context.Context, key string, payload []byte) error {
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, payload)
	return nil
}

func gameResult(t *testing.T, betID string, finalValue float64) []byte {
	t.Helper()
	raw, err := json.Marshal(events.GameResult{BetID: betID, FinalValue: finalValue})
	assert.NoError(t, err)
	return raw
}

func TestProcessor(t *testing.T) {
	newProc := func(s *fakeSettler, dlq *fakeDeadLetter) (*Processor, *fakePublisher, *fakeBroadcaster) {
		publ := &fakePublisher{}
		bcast := &fakeBroadcaster{}
		var dl DeadLetter
		if dlq != nil {
			dl = dlq
		}
		p := NewProcessor(zap.NewNop(), s, publ, bcast, dl, "bets:settled")
		p.backoff = 0
		return p, publ, bcast
	}

	t.Run("successful settlement publishes and broadcasts", func(t *testing.T) {
		settler := &fakeSettler{sum: repo.Summary{Settled: 3, Won: 1, Lost: 2, PaidOut: 400}}
		dlq := &fakeDeadLetter{}
		p, publ, bcast := newProc(settler, dlq)

		err := p.Process(context.Background(), []byte("bet-1"), gameResult(t, "bet-1", 15))

		assert.NoError(t, err)
		assert.Equal(t, 1, settler.calls)
		assert.Len(t, publ.events, 1)
		assert.Equal(t, "bet-1", publ.events[0].BetID)
		assert.Equal(t, int64(400), publ.events[0].PaidOut)
		assert.Equal(t, []string{"bets:settled"}, bcast.channels)
		assert.Empty(t, dlq.payloads)
	})

	t.Run("transient store failure is retried in place", func(t *testing.T) {
		settler := &fakeSettler{failures: 2, sum: repo.Summary{Settled: 1, Won: 1, PaidOut: 200}}
		dlq := &fakeDeadLetter{}
		p, publ, _ := newProc(settler, dlq)

		err := p.Process(context.Background(), []byte("bet-1"), gameResult(t, "bet-1", 15))

		assert.NoError(t, err)
		assert.Equal(t, 3, settler.calls)
		assert.Len(t, publ.events, 1)
		assert.Empty(t, dlq.payloads)
	})

	t.Run("persistent store failure lands on the dlq", func(t *testing.T) {
		settler := &fakeSettler{failures: 100}
		dlq := &fakeDeadLetter{}
		p, publ, bcast := newProc(settler, dlq)
		raw := gameResult(t, "bet-1", 15)

		err := p.Process(context.Background(), []byte("bet-1"), raw)

		assert.Error(t, err)
		assert.Equal(t, 4, settler.calls)
		assert.Empty(t, publ.events)
		assert.Empty(t, bcast.payloads)
		assert.Equal(t, []string{"bet-1"}, dlq.keys)
		assert.Equal(t, raw, dlq.payloads[0])
	})

	t.Run("unknown bet goes to the dlq without retries", func(t *testing.T) {
		settler := &fakeSettler{notFound: true}
		dlq := &fakeDeadLetter{}
		p, publ, _ := newProc(settler, dlq)

		err := p.Process(context.Background(), []byte("bet-ghost"), gameResult(t, "bet-ghost", 8))

		assert.NoError(t, err)
		assert.Equal(t, 1, settler.calls)
		assert.Empty(t, publ.events)
		assert.Equal(t, []string{"bet-ghost"}, dlq.keys)
	})

	t.Run("unparseable payload is keyed by the message key", func(t *testing.T) {
		settler := &fakeSettler{}
		dlq := &fakeDeadLetter{}
		p, publ, _ := newProc(settler, dlq)
		raw := []byte(`{"bet_id":`)

		err := p.Process(context.Background(), []byte("quadro-7"), raw)

		assert.NoError(t, err)
		assert.Zero(t, settler.calls)
		assert.Empty(t, publ.events)
		assert.Equal(t, []string{"quadro-7"}, dlq.keys)
		assert.Equal(t, raw, dlq.payloads[0])
	})

	t.Run("missing dlq drops nothing silently on success path", func(t *testing.T) {
		settler := &fakeSettler{sum: repo.Summary{Settled: 1}}
		p, publ, _ := newProc(settler, nil)

		err := p.Process(context.Background(), []byte("bet-1"), gameResult(t, "bet-1", 15))

		assert.NoError(t, err)
		assert.Len(t, publ.events, 1)
	})
}
