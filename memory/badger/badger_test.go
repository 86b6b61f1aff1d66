package badger

import (
	"fmt"
	"testing"

	"github.com/panelmesh/panelmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *EventLog {
	t.Helper()
	log, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestEventLog_AppendAndReadBack(t *testing.T) {
	log := openTestLog(t)

	for i := 1; i <= 3; i++ {
		ev := core.NewAgentEvent("agent-1", "sess-1", core.EventTypeResponseGiven, map[string]any{
			"question": fmt.Sprintf("q%d", i),
			"answer":   fmt.Sprintf("a%d", i),
		})
		stored, err := log.Append(ev)
		require.NoError(t, err)
		assert.Equal(t, int64(i), stored.SequenceNumber)
	}

	events, err := log.Events("agent-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.SequenceNumber)
		assert.Equal(t, "agent-1", ev.AgentID)
	}
}

func TestEventLog_AgentsAreIsolated(t *testing.T) {
	log := openTestLog(t)

	_, err := log.Append(core.NewAgentEvent("a", "", "note", map[string]any{"text": "one"}))
	require.NoError(t, err)
	_, err = log.Append(core.NewAgentEvent("b", "", "note", map[string]any{"text": "two"}))
	require.NoError(t, err)

	evA, err := log.Events("a")
	require.NoError(t, err)
	evB, err := log.Events("b")
	require.NoError(t, err)
	require.Len(t, evA, 1)
	require.Len(t, evB, 1)
	assert.Equal(t, int64(1), evA[0].SequenceNumber)
	assert.Equal(t, int64(1), evB[0].SequenceNumber)
}

func TestEventLog_UnknownAgentIsEmptyNotError(t *testing.T) {
	log := openTestLog(t)
	events, err := log.Events("nobody")
	require.NoError(t, err)
	assert.Empty(t, events)
}
