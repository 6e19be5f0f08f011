package user

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/authportal/internal/apperr"
)

const (
	MaxAge     = 150
	dateLayout = "2006-01-02"
)

var Genders = []string{"male", "female", "other"}

// ProfileInput is a partial profile update as sent by clients. An absent key
// leaves the attribute untouched; null or "" clears it. fullName can be
// changed but never cleared.
// Credentials and identity are not part of the type, so extra keys such as
// password or passwordHash are dropped by the decoder.
type ProfileInput struct {
	FullName     Optional[string]   `json:"fullName" validate:"omitempty,max=120"`
	Age          json.RawMessage    `json:"age"`
	DateOfBirth  json.RawMessage    `json:"dob"`
	Gender       Optional[string]   `json:"gender"`
	Hobbies      Optional[[]string] `json:"hobbies"`
	MotherName   Optional[string]   `json:"motherName" validate:"omitempty,max=120"`
	FatherName   Optional[string]   `json:"fatherName" validate:"omitempty,max=120"`
	UserMobile   Optional[string]   `json:"userMobile" validate:"omitempty,max=32"`
	ParentMobile Optional[string]   `json:"parentMobile" validate:"omitempty,max=32"`
	Description  Optional[string]   `json:"description" validate:"omitempty,max=2000"`
}

// Apply merges in over u and returns the result. u is not modified.
func (in ProfileInput) Apply(u User) (User, error) {
	out := u
	out.Profile = u.Profile.clone()

	if in.FullName.Set {
		name := ""
		if in.FullName.Value != nil {
			name = strings.TrimSpace(*in.FullName.Value)
		}
		if name == "" {
			return User{}, apperr.Validation("Full name cannot be empty")
		}
		out.FullName = name
	}

	if in.Age != nil {
		age, err := parseAge(in.Age)
		if err != nil {
			return User{}, err
		}
		out.Profile.Age = age
	}

	if in.DateOfBirth != nil {
		dob, err := parseDate(in.DateOfBirth)
		if err != nil {
			return User{}, err
		}
		out.Profile.DateOfBirth = dob
	}

	if in.Gender.Set {
		raw := ""
		if in.Gender.Value != nil {
			raw = *in.Gender.Value
		}
		gender, err := parseGender(raw)
		if err != nil {
			return User{}, err
		}
		out.Profile.Gender = gender
	}

	switch {
	case in.Hobbies.Cleared():
		out.Profile.Hobbies = nil
	case in.Hobbies.Set:
		out.Profile.Hobbies = hobbySet(*in.Hobbies.Value)
	}

	setString(&out.Profile.MotherName, in.MotherName)
	setString(&out.Profile.FatherName, in.FatherName)
	setString(&out.Profile.UserMobile, in.UserMobile)
	setString(&out.Profile.ParentMobile, in.ParentMobile)
	setString(&out.Profile.Description, in.Description)

	return out, nil
}

func setString(dst *string, src Optional[string]) {
	switch {
	case src.Cleared():
		*dst = ""
	case src.Set:
		*dst = strings.TrimSpace(*src.Value)
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseAge accepts a JSON number or a numeric string. nil means cleared.
func parseAge(raw json.RawMessage) (*int, error) {
	invalid := apperr.Validation("Age must be a whole number between 0 and 150")

	if isNull(raw) {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || n > MaxAge {
			return nil, invalid
		}
		return &n, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, invalid
	}
	if f != math.Trunc(f) || f < 0 || f > MaxAge {
		return nil, invalid
	}
	n := int(f)
	return &n, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. nil means cleared.
func parseDate(raw json.RawMessage) (*time.Time, error) {
	invalid := apperr.Validation("Date of birth must be a date (YYYY-MM-DD)")

	if isNull(raw) {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, invalid
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if d, err := time.Parse(dateLayout, text); err == nil {
		return &d, nil
	}
	d, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil, invalid
	}
	d = d.UTC()
	return &d, nil
}

func parseGender(raw string) (string, error) {
	g := strings.ToLower(strings.TrimSpace(raw))
	if g == "" {
		return "", nil
	}
	for _, allowed := range Genders {
		if g == allowed {
			return g, nil
		}
	}
	return "", apperr.Validation("Gender must be one of " + strings.Join(Genders, ", "))
}

// hobbySet trims entries and drops blanks and duplicates, keeping first-seen order.
func hobbySet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, h := range in {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
