package testutil

import (
	"net/http"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request context,
// simulating what the auth middleware does for a valid token.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actor)
	return req.WithContext(ctx)
}

// AsAdmin attaches a fresh admin actor to the request context.
func AsAdmin(req *http.Request) *http.Request {
	return WithActor(req, domain.Actor{ID: domain.NewUserID(), Role: domain.RoleAdmin})
}

// AsDonor attaches a donor actor with the given user ID to the request context.
func AsDonor(req *http.Request, userID domain.UserID) *http.Request {
	return WithActor(req, domain.Actor{ID: userID, Role: domain.RoleDonor})
}
