package domain

// Role is the caller's helpdesk role carried in access tokens.
type Role string

const (
	RoleRequester Role = "requester"
	RoleAgent     Role = "agent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleAgent
}
