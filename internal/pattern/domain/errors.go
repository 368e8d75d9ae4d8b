package domain

import "errors"

var (
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidPatternType = errors.New("invalid pattern type")
	// ErrAnalysisInProgress means another run holds the user's analysis lock.
	ErrAnalysisInProgress = errors.New("pattern analysis already in progress")
	// ErrHistoryFetch wraps any failure reading task or reminder history.
	ErrHistoryFetch = errors.New("failed to fetch activity history")
	ErrForbidden    = errors.New("forbidden")
)
