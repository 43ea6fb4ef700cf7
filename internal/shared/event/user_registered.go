package event

const UserRegisteredDestination string = "user_registered"
const UserRegisteredConsumerNotification string = "user_registered_notification"

type UserRegisteredMessage struct {
	UserID    int64  `json:"user_id,string"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}
