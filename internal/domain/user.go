package domain

import "strings"

// UserRecord is the user returned by a successful login.
// Optional profile attributes are "" when the backend omits them.
type UserRecord struct {
	ID          int64
	Handle      string // Canonical username, key for profile lookups
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	Gender      string
	Location    string
	Photo       string // URL or path of the profile photo
}

// HasHandle reports whether the record carries a non-blank handle.
func (u UserRecord) HasHandle() bool {
	return strings.TrimSpace(u.Handle) != ""
}

// UserProfile is the editable profile shown on the profile screen.
type UserProfile struct {
	ID         int64
	Handle     string
	Email      string
	GivenName  string
	FamilyName string
	Gender     string
	Location   string
	Photo      string
}

// ProfileFromUserRecord converts a login user record into a profile.
func ProfileFromUserRecord(u UserRecord) UserProfile {
	return UserProfile{
		ID:         u.ID,
		Handle:     u.Handle,
		Email:      u.Email,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		Gender:     u.Gender,
		Location:   u.Location,
		Photo:      u.Photo,
	}
}

// UserRecord converts the profile back into a wire user record.
func (p UserProfile) UserRecord() UserRecord {
	return UserRecord{
		ID:          p.ID,
		Handle:      p.Handle,
		Email:       p.Email,
		DisplayName: strings.TrimSpace(p.GivenName + " " + p.FamilyName),
		GivenName:   p.GivenName,
		FamilyName:  p.FamilyName,
		Gender:      p.Gender,
		Location:    p.Location,
		Photo:       p.Photo,
	}
}
