package app

import (
	"errors"
	"testing"
)

func TestIngestionConsumer(t *testing.T) {
	tests := []struct {
		name      string
		handler   func(c *IngestionConsumer) func([]byte) bool
		body      string
		repoErr   error
		wantAck   bool
		wantStore bool
	}{
		{
			name:      "charge update stored",
			handler:   func(c *IngestionConsumer) func([]byte) bool { return c.HandleChargeUpdated },
			body:      `{"charge":{"id":"ch_1","currency":"USD"}}`,
			wantAck:   true,
			wantStore: true,
		},
		{
			name:    "malformed charge acked",
			handler: func(c *IngestionConsumer) func([]byte) bool { return c.HandleChargeUpdated },
			body:    `{"charge":`,
			wantAck: true,
		},
		{
			name:    "charge store failure requeued",
			handler: func(c *IngestionConsumer) func([]byte) bool { return c.HandleChargeUpdated },
			body:    `{"charge":{"id":"ch_1"}}`,
			repoErr: errors.New("db down"),
			wantAck: false,
		},
		{
			name:      "dispute update stored",
			handler:   func(c *IngestionConsumer) func([]byte) bool { return c.HandleDisputeUpdated },
			body:      `{"dispute":{"id":"dp_1","charge_id":"ch_1","status":"needs_response"}}`,
			wantAck:   true,
			wantStore: true,
		},
		{
			name:    "dispute without id acked",
			handler: func(c *IngestionConsumer) func([]byte) bool { return c.HandleDisputeUpdated },
			body:    `{"dispute":{}}`,
			wantAck: true,
		},
		{
			name:      "timeline event stored",
			handler:   func(c *IngestionConsumer) func([]byte) bool { return c.HandleTimelineEvent },
			body:      `{"charge_id":"ch_1","event":{"type":"captured","datetime":1715299200,"amount":6300,"currency":"usd"}}`,
			wantAck:   true,
			wantStore: true,
		},
		{
			name:    "timeline event without charge acked",
			handler: func(c *IngestionConsumer) func([]byte) bool { return c.HandleTimelineEvent },
			body:    `{"event":{"type":"captured"}}`,
			wantAck: true,
		},
		{
			name:    "timeline store failure requeued",
			handler: func(c *IngestionConsumer) func([]byte) bool { return c.HandleTimelineEvent },
			body:    `{"charge_id":"ch_1","event":{"type":"captured","datetime":1}}`,
			repoErr: errors.New("db down"),
			wantAck: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			repo.upsertErr = tt.repoErr
			svc := newTestService(repo, nil, nil)
			consumer := NewIngestionConsumer(svc, nil)

			if got := tt.handler(consumer)([]byte(tt.body)); got != tt.wantAck {
				t.Fatalf("ack = %v, want %v", got, tt.wantAck)
			}
			stored := len(repo.charges)+len(repo.disputes)+len(repo.events) > 0
			if stored != tt.wantStore {
				t.Fatalf("stored = %v, want %v", stored, tt.wantStore)
			}
		})
	}
}

func TestIngestionConsumerBindings(t *testing.T) {
	bindings := NewIngestionConsumer(newTestService(newMemoryRepo(), nil, nil), nil).Bindings()
	for _, key := range []string{RoutingKeyChargeUpdated, RoutingKeyDisputeUpdated, RoutingKeyTimelineEvent} {
		if bindings[key] == nil {
			t.Fatalf("missing binding for %s", key)
		}
	}
}
