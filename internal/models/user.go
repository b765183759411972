package models

import "time"

// User is the account record. Coins is the only field mutated after
// creation; every mutation rewrites the full record.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"createdAt"`
	OriginAddress string    `json:"originAddress"`
	Coins         int       `json:"coins"`
}

// Credentials is the stored login record for one email. PasswordHash is a
// bcrypt hash, never the plaintext password.
type Credentials struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}
