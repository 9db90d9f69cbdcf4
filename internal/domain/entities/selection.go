package entities

import (
	"time"
)

// SelectionPhase represents where a roulette session is in its lifecycle
type SelectionPhase string

const (
	PhaseIdle       SelectionPhase = "idle"
	PhaseSearching  SelectionPhase = "searching"
	PhasePresenting SelectionPhase = "presenting"
	PhaseAnimating  SelectionPhase = "animating"
	PhaseSelected   SelectionPhase = "selected"
	PhaseFailed     SelectionPhase = "failed"
)

// SelectionState is the single source of truth for a roulette session.
// Candidates is fixed once a search completes; Current changes only while the
// preview animation runs; Final is set exactly once per round and replaced
// only by an explicit reroll.
type SelectionState struct {
	Phase      SelectionPhase `json:"phase"`
	Candidates []Venue        `json:"candidates,omitempty"`
	Current    *Venue         `json:"current,omitempty"`
	Final      *Venue         `json:"final,omitempty"`
}

// SelectionEventType represents the type of selection session event
type SelectionEventType string

const (
	SelectionEventPhaseChange SelectionEventType = "phase_change"
	SelectionEventPreview     SelectionEventType = "preview"
	SelectionEventFinal       SelectionEventType = "final"
)

// SelectionEvent is a real-time update emitted on every session transition.
// The rendering layer subscribes to these instead of polling session state.
type SelectionEvent struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	EventType SelectionEventType `json:"event_type"`
	Timestamp time.Time          `json:"timestamp"`
	Phase     SelectionPhase     `json:"phase"`
	Current   *Venue             `json:"current,omitempty"`
	Final     *Venue             `json:"final,omitempty"`
}
