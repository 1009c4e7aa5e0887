package manuscript

import "strings"

// Profile is a read-only view of an account owned by the accounts service.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Roles     []string
}

func (a Actor) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
