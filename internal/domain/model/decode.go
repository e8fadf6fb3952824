package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBatch is returned when a payload is neither an array of
// events nor an object with an "events" array.
var ErrMalformedBatch = errors.New("malformed event batch")

// Batch is the envelope accepted next to a bare array.
type Batch struct {
	SessionID string            `json:"sessionId,omitempty"`
	DeviceID  string            `json:"deviceId,omitempty"`
	Events    []json.RawMessage `json:"events"`
}

// DecodeRawEvents parses a batch leniently. A record whose optional fields
// have unexpected types is kept with what could be salvaged; records that
// are not objects at all are skipped and counted in malformed.
func DecodeRawEvents(data []byte) (events []RawEvent, malformed int, err error) {
	b, err := SplitBatch(data)
	if err != nil {
		return nil, 0, err
	}

	events = make([]RawEvent, 0, len(b.Events))
	for _, rec := range b.Events {
		ev, ok := decodeOne(rec)
		if !ok {
			malformed++
			continue
		}
		events = append(events, ev)
	}
	return events, malformed, nil
}

// SplitBatch parses the outer shape of a payload without decoding the
// records. A bare array comes back as a Batch with no IDs.
func SplitBatch(data []byte) (Batch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Batch{}, fmt.Errorf("%w: empty body", ErrMalformedBatch)
	}

	var b Batch
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &b.Events); err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
		}
	case '{':
		if err := json.Unmarshal(data, &b); err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
		}
	default:
		return Batch{}, fmt.Errorf("%w: expected array or object", ErrMalformedBatch)
	}
	return b, nil
}

func decodeOne(rec json.RawMessage) (RawEvent, bool) {
	var ev RawEvent
	if err := json.Unmarshal(rec, &ev); err == nil {
		return ev, true
	}

	// Salvage the envelope when a nested field has the wrong shape.
	var minimal struct {
		Timestamp *EventTime `json:"timestamp"`
		SourceApp any        `json:"sourceApp"`
		RawKind   any        `json:"rawKind"`
		Activity  any        `json:"activity"`
	}
	if err := json.Unmarshal(rec, &minimal); err != nil {
		return RawEvent{}, false
	}
	ev = RawEvent{Timestamp: minimal.Timestamp}
	ev.RawKind, _ = minimal.RawKind.(string)
	ev.SourceApp, _ = minimal.SourceApp.(string)
	ev.Activity, _ = minimal.Activity.(string)
	return ev, true
}
