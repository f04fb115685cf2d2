package services

import "errors"

var (
	ErrAttemptIDRequired = errors.New("attemptId is required")
	ErrAnswersRequired   = errors.New("answers is required")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrGradingFailed     = errors.New("grading pipeline failed")

	ErrStudentNotFound = errors.New("student not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidWallet   = errors.New("invalid student wallet address")
	ErrMissingIDs      = errors.New("missing required fields: studentId and courseId")
	ErrNotConfigured   = errors.New("external client not configured")
	ErrEmptyGeneration = errors.New("empty response from question generator")

	ErrAlreadyPurchased = errors.New("you have already purchased this course")
	ErrInvalidAmount    = errors.New("invalid payment amount")
)
