package entity

type UserStatus int16

const (
	// UserStatusUnknown means the stored value is not one we know.
	UserStatusUnknown UserStatus = 0

	// UserStatusActive means the user may sign in.
	UserStatusActive UserStatus = 1

	// UserStatusBanned means the user is blocked from signing in.
	UserStatusBanned UserStatus = 2
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "active"
	case UserStatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive, UserStatusBanned:
		return us
	default:
		return UserStatusUnknown
	}
}

// TwoFactorState is the per-user 2FA lifecycle state as seen from storage.
// Pending is never persisted: it only exists while a setup token is alive.
type TwoFactorState string

const (
	TwoFactorDisabled TwoFactorState = "DISABLED"
	TwoFactorPending  TwoFactorState = "PENDING"
	TwoFactorEnabled  TwoFactorState = "ENABLED"
)
