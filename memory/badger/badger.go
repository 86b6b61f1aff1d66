// Package badger provides a durable core.EventLog backed by an embedded
// Badger key-value store. Events are keyed event/<agent>/<seq> so one
// agent's history is a single prefix iteration; the agent's current sequence
// head lives under seq/<agent> and is read and advanced in the same
// transaction as the event write. Badger's transaction conflict detection
// turns racing same-agent appends into memory.ErrSequenceConflict instead of
// duplicate sequence numbers.
package badger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/panelmesh/panelmesh/core"
	"github.com/panelmesh/panelmesh/memory"
)

// EventLog is a durable core.EventLog. Safe for concurrent use across
// agents; same-agent appends must be serialized by the caller, racing ones
// fail with memory.ErrSequenceConflict.
type EventLog struct {
	db *badgerdb.DB
}

// Open creates or opens an event log at dir.
func Open(dir string) (*EventLog, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger event log: open %s: %w", dir, err)
	}
	return &EventLog{db: db}, nil
}

// NewFromDB wraps an already opened Badger database.
func NewFromDB(db *badgerdb.DB) *EventLog { return &EventLog{db: db} }

// Close releases the underlying database.
func (l *EventLog) Close() error { return l.db.Close() }

func seqKey(agentID string) []byte {
	return []byte("seq/" + agentID)
}

func eventKey(agentID string, seq int64) []byte {
	key := make([]byte, 0, len("event/")+len(agentID)+1+8)
	key = append(key, []byte("event/"+agentID+"/")...)
	return binary.BigEndian.AppendUint64(key, uint64(seq))
}

// Append implements core.EventLog.
func (l *EventLog) Append(ev core.AgentEvent) (core.AgentEvent, error) {
	err := l.db.Update(func(txn *badgerdb.Txn) error {
		var next int64 = 1
		item, err := txn.Get(seqKey(ev.AgentID))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				next = int64(binary.BigEndian.Uint64(val)) + 1
				return nil
			}); err != nil {
				return err
			}
		case errors.Is(err, badgerdb.ErrKeyNotFound):
			// First event for this agent.
		default:
			return err
		}

		ev.SequenceNumber = next
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if err := txn.Set(eventKey(ev.AgentID, next), payload); err != nil {
			return err
		}
		return txn.Set(seqKey(ev.AgentID), binary.BigEndian.AppendUint64(nil, uint64(next)))
	})
	if errors.Is(err, badgerdb.ErrConflict) {
		return core.AgentEvent{}, memory.ErrSequenceConflict
	}
	if err != nil {
		return core.AgentEvent{}, fmt.Errorf("badger event log: append: %w", err)
	}
	return ev, nil
}

// Events implements core.EventLog. Keys are big-endian sequence numbers, so
// prefix iteration order is sequence order.
func (l *EventLog) Events(agentID string) ([]core.AgentEvent, error) {
	prefix := []byte("event/" + agentID + "/")
	var events []core.AgentEvent
	err := l.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				var ev core.AgentEvent
				if err := json.Unmarshal(val, &ev); err != nil {
					return fmt.Errorf("decode event: %w", err)
				}
				events = append(events, ev)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger event log: events for %s: %w", agentID, err)
	}
	return events, nil
}
