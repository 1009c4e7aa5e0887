package manuscript

import (
	"fmt"
	"strings"
)

// Author is shared between manuscripts and identified by email.
type Author struct {
	id          uint
	firstName   string
	lastName    string
	email       string
	affiliation string
	isPrimary   bool
}

func NewAuthor(firstName, lastName, email, affiliation string, isPrimary bool) (*Author, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("author email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid author email: %s", email)
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, fmt.Errorf("author first and last name are required")
	}

	return &Author{
		firstName:   firstName,
		lastName:    lastName,
		email:       email,
		affiliation: affiliation,
		isPrimary:   isPrimary,
	}, nil
}

func ReconstructAuthor(id uint, firstName, lastName, email, affiliation string, isPrimary bool) *Author {
	return &Author{
		id:          id,
		firstName:   firstName,
		lastName:    lastName,
		email:       email,
		affiliation: affiliation,
		isPrimary:   isPrimary,
	}
}

func (a *Author) ID() uint            { return a.id }
func (a *Author) FirstName() string   { return a.firstName }
func (a *Author) LastName() string    { return a.lastName }
func (a *Author) Email() string       { return a.email }
func (a *Author) Affiliation() string { return a.affiliation }
func (a *Author) IsPrimary() bool     { return a.isPrimary }

func (a *Author) FullName() string {
	return strings.TrimSpace(a.firstName + " " + a.lastName)
}

func (a *Author) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("author ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("author ID cannot be zero")
	}
	a.id = id
	return nil
}
