package util

import "errors"

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailRegistered        = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrStudentNotFound        = errors.New("student not found")
	ErrSessionNotFound        = errors.New("quiz session not found or expired")
	ErrVersionConflict        = errors.New("progress row was modified concurrently")
	ErrContentUnavailable     = errors.New("content generation failed")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrGuestNotAllowed        = errors.New("sign in to save progress")
)
