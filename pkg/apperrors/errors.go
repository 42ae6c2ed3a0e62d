package apperrors

import "errors"

var (
	ErrNotFound                    = errors.New("not found")
	ErrConflict                    = errors.New("conflict")
	ErrGenerationInFlight          = errors.New("generation already in flight for component")
	ErrMalformedGenerationResponse = errors.New("malformed generation response")
	ErrEmptySaveLabel              = errors.New("save label is empty")
	ErrUnchangedCode               = errors.New("code is identical to current version")
	ErrNoProjectSelected           = errors.New("no project selected")
	ErrNoComponentSelected         = errors.New("no component selected")
)
