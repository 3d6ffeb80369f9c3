package identity

import (
	"net/url"
	"strings"
)

// Role is the application-level role of an Identity.
type Role string

// Roles
const (
	RoleStudent       Role = "student"
	RoleInstructor    Role = "instructor"
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "super_admin"
	RoleBusinessAdmin Role = "business_admin"
	RoleEmployee      Role = "employee"
)

var (
	AllRoles = []Role{RoleStudent, RoleInstructor, RoleAdmin, RoleSuperAdmin, RoleBusinessAdmin, RoleEmployee}

	rolePriorities = map[Role]int{
		// Admins: 30 - 21
		RoleSuperAdmin: 30,
		RoleAdmin:      29,

		// Business: 20 - 11
		RoleBusinessAdmin: 20,
		RoleInstructor:    11,

		// Base: 10 - 1
		RoleEmployee: 5,
		RoleStudent:  1,
	}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Instructor", Value: RoleInstructor},
		{Name: "Employee", Value: RoleEmployee},
		{Name: "Business Admin", Value: RoleBusinessAdmin},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Super Admin", Value: RoleSuperAdmin},
	}
)

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func ValidRole(role Role) bool {
	_, ok := rolePriorities[role]
	return ok
}

// CoerceRole maps an arbitrary stored value onto the role enumeration.
// Unknown values resolve to RoleStudent; they are never carried through.
func CoerceRole(val string) Role {
	role := Role(strings.TrimSpace(strings.ToLower(val)))
	if ValidRole(role) {
		return role
	}
	return RoleStudent
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []Role) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// Identity is a resolved user. Values are immutable once resolved:
// a refresh builds a new Identity, it never mutates one in place.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Role      Role   `json:"role"`
	Roles     []Role `json:"roles"`
	IsDemo    bool   `json:"is_demo"`
	CompanyID string `json:"company_id,omitempty"`
}

func (i *Identity) HasRole(role Role) bool {
	if i.Role == role {
		return true
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin) || i.HasRole(RoleSuperAdmin)
}

func (i *Identity) IsInstructor() bool {
	return i.HasRole(RoleInstructor)
}

func (i *Identity) IsBusinessAdmin() bool {
	return i.HasRole(RoleBusinessAdmin)
}

func (i *Identity) IsEmployee() bool {
	return i.HasRole(RoleEmployee)
}

func (i *Identity) IsStudent() bool {
	return i.HasRole(RoleStudent)
}

// WithRole returns a copy of the Identity with role appended to its role
// set (and IsDemo carried over); the receiver is left untouched.
func (i *Identity) WithRole(role Role) *Identity {
	cp := *i
	cp.Roles = make([]Role, 0, len(i.Roles)+1)
	cp.Roles = append(cp.Roles, i.Roles...)
	if !cp.HasRole(role) {
		cp.Roles = append(cp.Roles, role)
	}
	return &cp
}

// Principal is the raw account object returned by the remote auth provider,
// before profile resolution. It contains facts only, no decisions.
type Principal struct {
	ID       string
	Email    string
	Metadata map[string]string
}

func (p Principal) IsDemo(demoDomain string) bool {
	if p.Metadata["demo"] == "true" {
		return true
	}
	return IsDemoEmail(p.Email, demoDomain)
}

// Profile is a row of the profile table, keyed by principal ID.
// Missing columns surface as empty strings.
type Profile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
	Role      string
	Bio       string
	Phone     string
	CompanyID string
}

// IsDemoEmail reports whether email belongs to the demo domain.
func IsDemoEmail(email, demoDomain string) bool {
	if demoDomain == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(demoDomain))
}

const defaultName = "User"

// AvatarURLFor generates a deterministic placeholder avatar keyed by name.
func AvatarURLFor(name string) string {
	if name == "" {
		name = defaultName
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}
