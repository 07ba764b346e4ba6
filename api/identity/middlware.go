package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	dmn "github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const (
	// ContextLearner is the key used to store the token's learner in the Gin context.
	ContextLearner = "learner"
)

// Authoriz rejects requests without a valid bearer token and attaches the learner otherwise.
func Authoriz(ts i.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve the access token from the Authorization header.
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatus(http.StatusUnauthorized) // No token found in the header.
			return
		}

		// Split the "Bearer" prefix from the token.
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatus(http.StatusUnauthorized) // Malformed Authorization header.
			return
		}

		learner, err := ts.Decode(parts[1])
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ContextLearner, learner)
		c.Next()
	}
}

// LearnerFrom returns the learner attached by Authoriz.
func LearnerFrom(c *gin.Context) (dmn.Learner, bool) {
	v, ok := c.Get(ContextLearner)
	if !ok {
		return dmn.Learner{}, false
	}
	learner, ok := v.(dmn.Learner)
	return learner, ok
}
