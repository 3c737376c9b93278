package domain

// Role partitions users into the two access levels the system knows.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleDonor Role = "donor"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDonor
}

// Actor is the authenticated caller of an operation, as extracted from the
// access token. Workflow services authorize against it before any mutation.
type Actor struct {
	ID   UserID
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsZero reports whether no actor was attached to the context.
func (a Actor) IsZero() bool { return a.ID.IsNil() }
