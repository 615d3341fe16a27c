package catalog

import "fmt"

type ErrorType string

func (e ErrorType) Error() string {
	return string(e)
}

const (
	ErrNotFound        ErrorType = "not found"
	ErrVirtualPlaylist ErrorType = "virtual playlists are read-only"
	ErrDuplicateName   ErrorType = "name already in use"
	ErrConflict        ErrorType = "conflict"
	ErrInvalidParams   ErrorType = "invalid parameters"
)

func NewError(message string, errType ErrorType, innerErr error) Error {
	return Error{
		Message: message,
		Type:    errType,
		Err:     innerErr,
	}
}

type Error struct {
	Message string
	Type    ErrorType
	Err     error
}

func (e Error) Error() string {
	if e.Err == nil {
		if e.Message == "" {
			return string(e.Type)
		}
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Err)
}

func (e Error) Is(target error) bool {
	if t, ok := target.(Error); ok {
		return e.Type == t.Type
	}
	if t, ok := target.(ErrorType); ok {
		return e.Type == t
	}
	return false
}

func (e Error) Unwrap() error {
	return e.Err
}

func notFound(kind, id string) error {
	return NewError(fmt.Sprintf("%s %s", kind, id), ErrNotFound, nil)
}
