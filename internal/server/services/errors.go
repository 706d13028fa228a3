package services

import "errors"

// Error is a business rule violation. Its text is returned to the client
// unchanged.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func newError(msg string) *Error { return &Error{msg: msg} }

var (
	ErrUsernameTaken       = newError("Username is taken")
	ErrInvalidUsername     = newError("Invalid username")
	ErrInvalidPassword     = newError("Invalid password")
	ErrInvalidRefreshToken = newError("Invalid refresh token")

	ErrNoFile         = newError("file not selected")
	ErrAddPhoto       = newError("Problem adding photo")
	ErrDuplicatePhoto = newError("This photo is already in the database.")
	ErrSimilarPhoto   = newError("Similar photo already exists in the database.")
	ErrAlreadyMain    = newError("This is already your main photo")
	ErrDeleteMain     = newError("You cannot delete your main photo")
	ErrDeletePhoto    = newError("Problem deleting the photo")
	ErrSetMain        = newError("Problem setting the main photo")

	ErrUpdateUser    = newError("Failed to update user")
	ErrMessageSelf   = newError("You cannot send messages to yourself")
	ErrDeleteMessage = newError("Problem deleting the message")
	ErrNoRoles       = newError("You must select at least one role")
	ErrUnknownRole   = newError("Unknown role")
)

// ErrImageDecode reports that stored or uploaded image bytes could not be
// decoded during the similarity check. It is a server-side failure.
var ErrImageDecode = errors.New("image decode failed")
