package entity

// Role is the capacity in which an actor issues an intent.
type Role string

const (
	RoleClient   Role = "client"
	RoleExpert   Role = "expert"
	RolePlatform Role = "platform"
)

// ParseRole converts a raw label into a Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleClient, RoleExpert, RolePlatform:
		return Role(raw), true
	default:
		return "", false
	}
}

// Actor identifies who issues an intent. It is always passed explicitly.
type Actor struct {
	ID   int64
	Role Role
}

// Client builds a client actor.
func Client(id int64) Actor { return Actor{ID: id, Role: RoleClient} }

// Expert builds an expert actor.
func Expert(id int64) Actor { return Actor{ID: id, Role: RoleExpert} }

// Platform builds an actor for platform policy decisions.
func Platform(id int64) Actor { return Actor{ID: id, Role: RolePlatform} }
