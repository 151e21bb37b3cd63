package domain

// Caller is the explicit request identity handed to every workflow
// operation. Handlers build it from JWT claims; services never reach into
// session state.
type Caller struct {
	UserID   int64
	Role     string
	ClientID *int64
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// OwnsClient reports whether the caller is the client with the given id.
func (c Caller) OwnsClient(clientID int64) bool {
	return c.ClientID != nil && *c.ClientID == clientID
}
