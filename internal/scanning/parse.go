package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// eventPayload is the wire shape sent by capture clients
type eventPayload struct {
	Kind       string   `json:"kind"`
	Type       string   `json:"type"` // older clients send "type" instead of "kind"
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence"`
	Symbology  string   `json:"symbology"`
	Bounds     *Bounds  `json:"bounds"`
}

// ParseEvent decodes and validates a scan event from JSON.
func ParseEvent(data []byte) (Event, error) {
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Event{}, fmt.Errorf("unmarshaling scan event: %w", err)
	}

	kind := payload.Kind
	if kind == "" {
		kind = payload.Type
	}

	event := Event{
		Kind:      Kind(strings.ToLower(strings.TrimSpace(kind))),
		Value:     strings.TrimSpace(payload.Value),
		Symbology: strings.ToLower(strings.TrimSpace(payload.Symbology)),
		Bounds:    payload.Bounds,
	}
	if payload.Confidence != nil {
		event.Confidence = *payload.Confidence
	}

	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}
