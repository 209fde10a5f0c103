package redis

import (
	"fmt"

	"github.com/mcoot/taskauth/internal/model"
)

// Key prefix for all auth data
const keyPrefix = "taskauth"

// userKey returns the Redis key for the HASH holding a user record
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%d", keyPrefix, id)
}

// userKeyPrefix is userKey without the id, used inside the create script
func userKeyPrefix() string {
	return fmt.Sprintf("%s:user:", keyPrefix)
}

// usernameIndexKey returns the Redis key for the username -> user id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// emailIndexKey returns the Redis key for the email -> user id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// userSequenceKey returns the Redis key of the user id counter
func userSequenceKey() string {
	return fmt.Sprintf("%s:seq:user", keyPrefix)
}
