package identity

import "github.com/beka-birhanu/vinom-sandbox/service/i"

// TokenRequest asks for a guest learner token.
type TokenRequest struct {
	Name string `json:"name" binding:"required"`
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	LearnerID string `json:"learner_id"`
	Name      string `json:"name"`
	Token     string `json:"token"`
}

// LearnerResponse describes the token holder and their latest runs.
type LearnerResponse struct {
	LearnerID string         `json:"learner_id"`
	Name      string         `json:"name"`
	Runs      []*i.RunReport `json:"runs"`
}
