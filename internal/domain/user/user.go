package user

import (
	"strings"
	"time"
)

// Profile holds the optional attributes a user edits after signing up.
type Profile struct {
	Age          *int       `json:"age,omitempty"`
	DateOfBirth  *time.Time `json:"dob,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Hobbies      []string   `json:"hobbies,omitempty"`
	MotherName   string     `json:"motherName,omitempty"`
	FatherName   string     `json:"fatherName,omitempty"`
	UserMobile   string     `json:"userMobile,omitempty"`
	ParentMobile string     `json:"parentMobile,omitempty"`
	Description  string     `json:"description,omitempty"`
}

type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string // never leaves the service layer
	Profile      Profile
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// View is the public projection of a User: everything but the password hash.
type View struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Profile
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u User) View() View {
	return View{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Profile:   u.Profile.clone(),
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// NormalizeEmail is the canonical form used for storage and lookups, which
// makes email uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p Profile) clone() Profile {
	out := p
	if p.Age != nil {
		age := *p.Age
		out.Age = &age
	}
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		out.DateOfBirth = &dob
	}
	if p.Hobbies != nil {
		out.Hobbies = append([]string(nil), p.Hobbies...)
	}
	return out
}
