package service

import "github.com/google/uuid"

// Activity ids double as qdrant point ids, which must be valid UUIDs.
func newID() string {
	return uuid.NewString()
}
