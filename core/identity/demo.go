package identity

import "strings"

// DemoAccount is a sales-demonstration account. These accounts are a
// presentation convenience: they must always land on their intended
// dashboard regardless of backend state drift, so the registry here is
// authoritative over whatever the profile table says.
type DemoAccount struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Password string `json:"-"`
}

// DemoDomain is the email domain demo accounts live on. Wiring may
// override it from configuration.
var DemoDomain = "schoolier.com"

var DemoAccounts = []DemoAccount{
	{Email: "student@schoolier.com", Name: "Demo Student", Role: RoleStudent, Password: "schoolier-demo"},
	{Email: "instructor@schoolier.com", Name: "Demo Instructor", Role: RoleInstructor, Password: "schoolier-demo"},
	{Email: "admin@schoolier.com", Name: "Demo Admin", Role: RoleAdmin, Password: "schoolier-demo"},
	{Email: "business@schoolier.com", Name: "Demo Business", Role: RoleBusinessAdmin, Password: "schoolier-demo"},
	{Email: "employee@schoolier.com", Name: "Demo Employee", Role: RoleEmployee, Password: "schoolier-demo"},
}

func DemoAccountByEmail(email string) (DemoAccount, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, acct := range DemoAccounts {
		if acct.Email == email {
			return acct, true
		}
	}
	return DemoAccount{}, false
}

// localPartSeparators splits the local part of an email address into segments.
func localPartSeparators(r rune) bool {
	return r == '.' || r == '-' || r == '_' || r == '+'
}

// InferDemoRole derives a role from a demo account email. The registry is
// consulted first; otherwise whole segments of the local part are matched,
// so "notadmin@schoolier.com" stays a student while "site-admin@schoolier.com"
// is an admin.
func InferDemoRole(email string) Role {
	if acct, ok := DemoAccountByEmail(email); ok {
		return acct.Role
	}

	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at < 0 {
		return RoleStudent
	}
	for _, seg := range strings.FieldsFunc(email[:at], localPartSeparators) {
		switch seg {
		case "instructor", "teacher":
			return RoleInstructor
		case "admin", "superadmin":
			return RoleAdmin
		case "business", "entreprise":
			return RoleBusinessAdmin
		case "employee", "employe":
			return RoleEmployee
		}
	}
	return RoleStudent
}
