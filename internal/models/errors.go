package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	ErrAccountNotFound    = fmt.Errorf("account %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("submission %w", ErrNotFound)
	ErrWithdrawalNotFound = fmt.Errorf("withdrawal %w", ErrNotFound)
	ErrPaymentNotFound    = fmt.Errorf("payment %w", ErrNotFound)

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBelowMinimum      = errors.New("below minimum withdrawal")
	ErrInvalidAmount     = errors.New("invalid amount")

	ErrDuplicateSubmission = errors.New("already submitted to this task")
	ErrTaskClosed          = errors.New("task is not accepting submissions")
	ErrTaskFull            = errors.New("task has reached maximum workers")

	ErrAlreadyReviewed   = errors.New("submission already reviewed")
	ErrAlreadyProcessed  = errors.New("withdrawal already processed")
	ErrNotApproved       = errors.New("withdrawal must be approved first")
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrNotAuthorized      = errors.New("not authorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleLocked         = errors.New("role already selected")
	ErrDuplicateEmail     = errors.New("email already registered")

	ErrExternalVerificationFailed = errors.New("external verification failed")
	ErrValidation                 = errors.New("validation failed")
)
