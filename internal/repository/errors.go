package repository

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrCodeConflict  = errors.New("confirmation code already exists")
	ErrAlreadyExists = errors.New("already exists")
)
