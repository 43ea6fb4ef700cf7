package event

const PasswordResetRequestedDestination string = "password_reset_requested"
const PasswordResetRequestedConsumerNotification string = "password_reset_requested_notification"

type PasswordResetRequestedMessage struct {
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	ResetToken string `json:"reset_token"`
}
