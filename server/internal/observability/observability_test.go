package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rc := NewRequestContextWithID(logger, "req-1", "Eliz", "chan-1", "bob")
	rc.Error("completion failed", errors.New("boom"), slog.Int(LogFieldPromptTokens, 12))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "completion failed", entry["msg"])
	assert.Equal(t, "req-1", entry[LogFieldRequestID])
	assert.Equal(t, "chan-1", entry[LogFieldChannelID])
	assert.Equal(t, "bob", entry[LogFieldAuthor])
	assert.Equal(t, "Eliz", entry[LogFieldCharacter])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 12, entry[LogFieldPromptTokens])
}

func TestRequestContextIDs(t *testing.T) {
	a := NewRequestContext(nil, "Eliz", "c", "u")
	b := NewRequestContext(nil, "Eliz", "c", "u")
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.Len(t, a.RequestID, 36)

	ctx := WithRequestContext(context.Background(), a)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(2)

	m.RecordRequest("a")
	m.RecordRequest("a")
	m.RecordRequest("b")
	m.RecordFailure("b")
	m.RecordDuration("a", 100*time.Millisecond)
	m.RecordDuration("a", 300*time.Millisecond)
	m.RecordDuration("b", 50*time.Millisecond)
	m.RecordPromptTokens(40)
	m.RecordSpamRemoved(3)

	assert.Equal(t, int64(3), m.GetRequestTotal())
	assert.Equal(t, int64(1), m.GetRequestFailed())
	assert.Equal(t, int64(200), m.GetAverageDuration("a"))
	assert.Equal(t, []string{"a", "b"}, m.GetAllChannels())

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.DurationCount, "old durations are dropped")
	assert.Equal(t, int64(40), snap.PromptTokens)
	assert.Equal(t, int64(3), snap.SpamRemoved)
	assert.Equal(t, int64(1), snap.Channels["b"].ErrorCount)
	assert.InDelta(t, 66.67, snap.SuccessRate(), 0.01)

	m.Reset()
	assert.Equal(t, 100.0, m.Snapshot().SuccessRate())
	assert.Empty(t, m.GetAllChannels())
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("c")
			m.RecordDuration("c", time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.GetRequestTotal())
}
