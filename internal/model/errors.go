package model

import "errors"

var (
	// Access gate errors
	ErrInvalidPIN     = errors.New("invalid pin")
	ErrSessionInvalid = errors.New("session invalid or expired")

	// Remote file errors
	ErrFileNotFound      = errors.New("file not found")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrNotAFile          = errors.New("path is not a file")
	ErrPathConflict      = errors.New("path conflict")

	// Preference errors
	ErrPreferenceNotFound = errors.New("preference not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
