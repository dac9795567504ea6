package command

import "errors"

var (
	// ErrBadGroup is returned when a registration is missing its name or
	// handler.
	ErrBadGroup = errors.New("command: invalid group registration")

	// ErrDuplicateGroup is returned when a group name is registered twice.
	ErrDuplicateGroup = errors.New("command: duplicate group")
)
