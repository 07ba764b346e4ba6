// Package gameapi exposes learner sessions and scoreboards over HTTP.
package gameapi

import "github.com/beka-birhanu/vinom-sandbox/service"

// CreateSessionRequest represents a request to create a new session.
type CreateSessionRequest struct {
	Width           int            `json:"width" binding:"min=0"`
	Height          int            `json:"height" binding:"min=0"`
	Generator       string         `json:"generator"`
	ExtraEdgeChance float64        `json:"extra_edge_chance"`
	Seed            *int64         `json:"seed"`
	Code            string         `json:"code"`
	Constants       map[string]int `json:"constants"`
}

// UpdateCodeRequest replaces the step-program of a session.
type UpdateCodeRequest struct {
	Code string `json:"code"`
}

// SimulateRequest starts a run. A zero TimeoutMS runs to completion before responding, at most
// game.DefaultMaxSteps steps.
type SimulateRequest struct {
	TimeoutMS   int  `json:"timeout_ms" binding:"min=0,max=60000"`
	MaxSteps    int  `json:"max_steps" binding:"min=0,max=1000000"`
	StopOnError bool `json:"stop_on_error"`
}

// SessionResponse is the state of a session, plus the fatal program error of the request
// that produced it.
type SessionResponse struct {
	Session service.View `json:"session"`
	Error   string       `json:"error,omitempty"`
}
