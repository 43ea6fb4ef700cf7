package entity

import "time"

type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	Role         string
	Status       UserStatus
	PasswordHash string

	TwoFactorEnabled bool
	// TwoFactorSecret is the encrypted blob text; empty unless enabled.
	TwoFactorSecret     string
	TwoFactorKeyVersion int

	PublicKey string
	// PrivateKey is the encrypted blob text of the PKCS#8 PEM key.
	PrivateKey        string
	EncryptionVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) TwoFactorState() TwoFactorState {
	if u.TwoFactorEnabled && u.TwoFactorSecret != "" {
		return TwoFactorEnabled
	}
	return TwoFactorDisabled
}

type NewUser struct {
	ID                int64
	Email             string
	FirstName         string
	LastName          string
	Role              string
	PasswordHash      string
	PublicKey         string
	PrivateKey        string
	EncryptionVersion int
	CreatedAt         time.Time
}
