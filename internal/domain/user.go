package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShortID is the 8-character id used in transaction codes.
func (u User) ShortID() string {
	return ShortUserID(u.ID)
}

func ShortUserID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
