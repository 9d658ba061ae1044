package sessions

import "errors"

var ErrSignedSessionIdIncorrectLength = errors.New("The signed session id is not the correct length")

var ErrInvalidSessionSignature = errors.New("The signed session id had an invalid signature")

var ErrUserNotFound = errors.New("The user was not found with that id or filter")

var ErrUserAlreadyExists = errors.New("A user with that id or email already exists")

var ErrSessionNotFound = errors.New("The session was not found")

// ErrSessionExpired is returned for a session whose window has passed. The record itself is kept.
var ErrSessionExpired = errors.New("The session has expired")

// ErrInvalidSession marks a stored record that cannot be trusted, e.g. one with no creation time.
var ErrInvalidSession = errors.New("The stored session record is invalid")

var ErrInvalidUserId = errors.New("The user id is empty or malformed")

// ErrStorageUnavailable wraps any failure reported by a SessionRepository or UserDirectory.
var ErrStorageUnavailable = errors.New("The session storage could not be reached")

// ErrUnsupportedFilter is a programmer error: the filter names a field the store does not know.
var ErrUnsupportedFilter = errors.New("The filter contains an unsupported field")
