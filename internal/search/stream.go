// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
)

// EventType tags a streamed search event.
type EventType string

const (
	EventDebug EventType = "debug"
	EventBatch EventType = "batch"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one message on a streamed search. Exactly one payload field is
// set, according to Type. A stream always ends with done or error.
type Event struct {
	Type  EventType `json:"type"`
	Debug *Debug    `json:"debug,omitempty"`
	Batch []Hit     `json:"batch,omitempty"`
	Total int       `json:"total,omitempty"`
	Err   error     `json:"-"`
}

// Stream runs the search incrementally: one debug event, then ranked hits
// in sorted batches, then a done event carrying the total. Cancelling the
// context stops emission; the channel is always closed.
func (s *Service) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)

		hits, debug, err := s.rank(ctx, req)
		if err != nil {
			emit(ctx, out, Event{Type: EventError, Err: err})
			return
		}
		if !emit(ctx, out, Event{Type: EventDebug, Debug: &debug}) {
			return
		}

		topK := req.TopK
		if topK <= 0 {
			topK = s.cfg.TopK
		}
		if len(hits) > topK {
			hits = hits[:topK]
		}

		batchSize := s.cfg.StreamBatchSize
		if topK < batchSize {
			batchSize = topK
		}
		if batchSize < 1 {
			batchSize = 1
		}

		for start := 0; start < len(hits); start += batchSize {
			end := start + batchSize
			if end > len(hits) {
				end = len(hits)
			}
			if !emit(ctx, out, Event{Type: EventBatch, Batch: hits[start:end]}) {
				return
			}
		}
		emit(ctx, out, Event{Type: EventDone, Total: len(hits)})
	}()
	return out
}

func emit(ctx context.Context, out chan<- Event, e Event) bool {
	select {
	case out <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
