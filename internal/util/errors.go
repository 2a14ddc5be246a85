package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSessionNotFound     = errors.New("interview session not found")
	ErrInvalidSessionState = errors.New("operation not allowed in current session state")
	ErrSessionCompleted    = errors.New("interview session already completed")
	ErrTurnFinalized       = errors.New("turn already finalized")
	ErrNoActiveTurn        = errors.New("no active turn")
	ErrJudgeUnavailable    = errors.New("judge service unavailable")
)
