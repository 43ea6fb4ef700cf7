package uid

import "github.com/google/uuid"

type uuidV7 struct{}

// NewUUID returns a StringID producing time-ordered UUIDv7 strings.
func NewUUID() StringID {
	return uuidV7{}
}

func (uuidV7) Generate() string {
	// NewV7 only fails when the entropy source does; uuid.New panics then too.
	return uuid.Must(uuid.NewV7()).String()
}
