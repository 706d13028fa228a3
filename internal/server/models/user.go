// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	KnownAs      string
	Gender       string
	DateOfBirth  time.Time
	City         string
	Country      string
	Introduction string
	LookingFor   string
	Interests    string
	CreatedAt    time.Time
	LastActive   time.Time

	// MainPhotoURL is filled by member listings; empty when the user has no photos.
	MainPhotoURL string
	Photos       []*Photo
	Roles        []string
}

// Age returns the age in whole years on the given day.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth.IsZero() {
		return 0
	}
	age := now.Year() - u.DateOfBirth.Year()
	if now.YearDay() < u.DateOfBirth.YearDay() {
		age--
	}
	return age
}

// MemberFilter narrows member listings.
type MemberFilter struct {
	CurrentUsername string
	Gender          string
	MinDateOfBirth  time.Time
	MaxDateOfBirth  time.Time
	OrderBy         string
	PageNumber      int
	PageSize        int
}

// ProfileUpdate holds the editable part of a profile.
type ProfileUpdate struct {
	Introduction string
	LookingFor   string
	Interests    string
	City         string
	Country      string
}
