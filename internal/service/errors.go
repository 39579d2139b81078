package service

import (
	"errors"

	"github.com/karvio/emissions-service/internal/forecast"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoActiveSession   = errors.New("no active session to end")
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInsufficientData surfaces the predictor's refusal to train on an
	// empty series; unlike other empty inputs, this one is an error.
	ErrInsufficientData = forecast.ErrInsufficientData
)
