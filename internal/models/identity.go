package models

// Role is the side of the conversation a participant speaks for.
type Role string

const (
	RoleReporter     Role = "reporter"
	RoleInvestigator Role = "investigator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleInvestigator
}

// Identity is the authenticated principal behind a connection.
// It is supplied by the auth layer and trusted for the life of the connection.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
