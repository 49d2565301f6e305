package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds routed over the ledger events queue.
const (
	KindSync   = "transaction.sync"
	KindDelete = "transaction.delete"
)

// Envelope wraps every queue message so consumers can route on Kind
// before decoding the payload.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// SyncMessage asks the worker to back up one transaction. It carries only
// the ID and version; the worker fetches the full record from the database,
// so the version is informational (first write vs. revision).
type SyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// DeleteMessage tells the worker a transaction was removed.
type DeleteMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id, version int64) *SyncMessage {
	return &SyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func NewDeleteMessage(id int64) *DeleteMessage {
	return &DeleteMessage{ID: id, Timestamp: time.Now()}
}

func envelope(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{Kind: kind, Payload: raw})
}

// DecodeEnvelope parses a queue message body into its envelope.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("envelope missing kind")
	}
	return &env, nil
}
