package testutil

import (
	"errors"
	"net/http"
	"strings"

	"bloodlink/internal/platform/middleware"
	"bloodlink/pkg/domain"
)

// StubValidator accepts tokens of the form "<user-id>|<role>", letting
// handler tests exercise the real auth middleware without minting JWTs.
type StubValidator struct{}

// TokenFor builds the stub token for an actor.
func TokenFor(actor domain.Actor) string {
	return actor.ID.String() + "|" + string(actor.Role)
}

func (StubValidator) ValidateToken(token string) (*middleware.TokenClaims, error) {
	id, role, ok := strings.Cut(token, "|")
	if !ok {
		return nil, errors.New("malformed stub token")
	}
	return &middleware.TokenClaims{UserID: id, Role: role}, nil
}

// Authorize sets the stub bearer token for an actor on the request.
func Authorize(req *http.Request, actor domain.Actor) *http.Request {
	req.Header.Set("Authorization", "Bearer "+TokenFor(actor))
	return req
}
