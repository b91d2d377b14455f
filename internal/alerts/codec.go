package alerts

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// isoLayout matches the millisecond UTC timestamps already present in
// persisted collections, e.g. 2024-01-15T12:34:56.789Z.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// wireAlert is the persisted shape of an Alert. Pointer fields distinguish
// "missing" from "zero" so records written by older versions can be filled
// or rejected explicitly.
type wireAlert struct {
	ID        *int64  `json:"id"`
	Title     *string `json:"title"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Read      bool    `json:"read"`
}

func toWire(a Alert) wireAlert {
	id := a.ID
	title := a.Title
	w := wireAlert{
		ID:      &id,
		Title:   &title,
		Message: a.Message,
		Type:    string(a.Type),
		Read:    a.Read,
	}
	if !a.Timestamp.IsZero() {
		w.Timestamp = a.Timestamp.UTC().Format(isoLayout)
	}
	return w
}

// fromWire applies the default-fill policy. Records without an id or title
// cannot take part in identity or dedup and are rejected.
func fromWire(w wireAlert) (Alert, bool) {
	if w.ID == nil || w.Title == nil || *w.Title == "" {
		return Alert{}, false
	}
	a := Alert{
		ID:      *w.ID,
		Title:   *w.Title,
		Message: w.Message,
		Type:    Type(w.Type),
		Read:    w.Read,
	}
	if a.Type == "" {
		a.Type = TypeInfo
	}
	if w.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, w.Timestamp); err == nil {
			a.Timestamp = ts
		}
	}
	return a, true
}

func encodeAlerts(alerts []Alert) ([]byte, error) {
	wire := make([]wireAlert, len(alerts))
	for i, a := range alerts {
		wire[i] = toWire(a)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding alerts: %w", err)
	}
	return data, nil
}

func encodeAlertsIndent(alerts []Alert) ([]byte, error) {
	wire := make([]wireAlert, len(alerts))
	for i, a := range alerts {
		wire[i] = toWire(a)
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding alerts: %w", err)
	}
	return data, nil
}

// decodeAlerts parses a persisted collection, preserving order. It returns
// the number of records dropped by the default-fill policy.
func decodeAlerts(data []byte) ([]Alert, int, error) {
	var wire []wireAlert
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, 0, fmt.Errorf("decoding alerts: %w", err)
	}

	alerts := make([]Alert, 0, len(wire))
	dropped := 0
	for _, w := range wire {
		a, ok := fromWire(w)
		if !ok {
			dropped++
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, dropped, nil
}
