// Package telemetry defines the transport contracts for ingesting building
// telemetry and publishing mitigation commands.
package telemetry

import "github.com/kilianp07/peakguard/core/model"

// Message is one telemetry payload for a site, carrying the forecast inputs
// for the next time step.
type Message struct {
	Site     string         `json:"site"`
	Features model.Features `json:"features"`
}

// Source delivers telemetry messages to the service loop.
type Source interface {
	// Messages returns the channel telemetry is delivered on. The channel
	// is closed when the source shuts down.
	Messages() <-chan Message
	Close() error
}

// ActionPublisher announces applied mitigation actions to downstream
// building systems.
type ActionPublisher interface {
	PublishAction(site string, act model.Action) error
}
