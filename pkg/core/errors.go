package core

import "errors"

// Domain errors shared by stores and services.
var (
	ErrNotFound           = errors.New("not found")
	ErrAccountExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateName      = errors.New("code snippet with this name is already saved")
)
