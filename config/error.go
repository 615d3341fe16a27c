package config

import "fmt"

// Error describes an invalid or missing environment variable.
type Error struct {
	Key     string
	Message string
	// Err is the underlying error, e.g. of opening LOG_FILE. It may be nil.
	Err error
}

func newError(key, message string) Error {
	return Error{
		Key:     key,
		Message: message,
	}
}

func wrapError(key, message string, err error) Error {
	return Error{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

func (c Error) Error() string {
	if c.Err != nil {
		return fmt.Sprintf("config: %s: %s: %s", c.Key, c.Message, c.Err)
	}
	return fmt.Sprintf("config: %s: %s", c.Key, c.Message)
}

func (c Error) Unwrap() error {
	return c.Err
}
