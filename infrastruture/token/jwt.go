package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongIssuer  = errors.New("token issued by another service")
)

// learnerClaims is the payload of a learner token.
type learnerClaims struct {
	LearnerID string `json:"learner_id"`
	Name      string `json:"name"`
	jwt.StandardClaims
}

// JwtService handles JWT operations.
// Implements i.Tokenizer.
type JwtService struct {
	secretKey string
	issuer    string
}

// NewJwtService creates a new JWT Service with the provided configuration.
func NewJwtService(secretKey, issuer string) i.Tokenizer {
	return &JwtService{
		secretKey: secretKey,
		issuer:    issuer,
	}
}

// Generate creates a signed token for learner that expires after expTime.
func (s *JwtService) Generate(learner identity.Learner, expTime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := learnerClaims{
		LearnerID: learner.ID.String(),
		Name:      learner.Name,
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(expTime).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// Decode parses and validates a token, returning the learner it was issued to.
func (s *JwtService) Decode(tokenString string) (identity.Learner, error) {
	claims := &learnerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.getSigningKey)
	if err != nil {
		return identity.Learner{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return identity.Learner{}, ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return identity.Learner{}, ErrWrongIssuer
	}

	id, err := uuid.Parse(claims.LearnerID)
	if err != nil {
		return identity.Learner{}, fmt.Errorf("%w: learner id: %v", ErrInvalidToken, err)
	}
	return identity.Learner{ID: id, Name: claims.Name}, nil
}

// getSigningKey returns the signing key for token validation.
func (s *JwtService) getSigningKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return []byte(s.secretKey), nil
}
