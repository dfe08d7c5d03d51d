package model

import "fmt"

// Statistics summarises a recorded event sequence.
type Statistics struct {
	TotalEvents      int               `json:"totalEvents"`
	EventTypes       map[EventKind]int `json:"eventTypes"`
	Duration         int64             `json:"duration"`         // ms between first and last event
	AverageFrequency float64           `json:"averageFrequency"` // events per second
}

// EventStatistics summarises the live contents of an event store.
type EventStatistics struct {
	TotalCount      int               `json:"totalCount"`
	CountsByType    map[EventKind]int `json:"countsByType"`
	AverageInterval float64           `json:"averageInterval"` // ms
	SessionDuration int64             `json:"sessionDuration"` // ms
}

// Recording is an immutable captured session.
type Recording struct {
	ID         string            `json:"id"`
	StartTime  int64             `json:"startTime"`
	EndTime    int64             `json:"endTime"`
	Events     []NormalizedEvent `json:"events"`
	Statistics Statistics        `json:"statistics"`
}

// RecordingID derives a recording identifier from a creation instant in milliseconds.
func RecordingID(createdAtMs int64) string {
	return fmt.Sprintf("recording-%d", createdAtMs)
}

// EmptyStatistics returns the statistics of an empty sequence.
func EmptyStatistics() Statistics {
	return Statistics{EventTypes: make(map[EventKind]int)}
}

// CalculateStatistics derives Statistics from the full event sequence.
func CalculateStatistics(events []NormalizedEvent) Statistics {
	if len(events) == 0 {
		return EmptyStatistics()
	}

	types := make(map[EventKind]int)
	for _, event := range events {
		types[event.Type]++
	}

	duration := events[len(events)-1].Timestamp - events[0].Timestamp
	var frequency float64
	if duration > 0 {
		frequency = float64(len(events)) / float64(duration) * 1000
	}

	return Statistics{
		TotalEvents:      len(events),
		EventTypes:       types,
		Duration:         duration,
		AverageFrequency: frequency,
	}
}

// NewRecording builds a Recording from a non-empty buffer. The events slice is copied.
func NewRecording(createdAtMs int64, events []NormalizedEvent) (Recording, error) {
	if len(events) == 0 {
		return Recording{}, fmt.Errorf("recording requires at least one event")
	}
	captured := make([]NormalizedEvent, len(events))
	copy(captured, events)

	return Recording{
		ID:         RecordingID(createdAtMs),
		StartTime:  captured[0].Timestamp,
		EndTime:    captured[len(captured)-1].Timestamp,
		Events:     captured,
		Statistics: CalculateStatistics(captured),
	}, nil
}
