package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

type Submission struct {
	ID              uuid.UUID        `json:"id"`
	TaskID          uuid.UUID        `json:"task_id"`
	WorkerID        uuid.UUID        `json:"worker_id"`
	Text            string           `json:"text"`
	Images          []string         `json:"images"`
	Status          SubmissionStatus `json:"status"`
	ReviewedBy      *uuid.UUID       `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	CoinsAwarded    *int64           `json:"coins_awarded,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Approve records a positive review. Only pending submissions can be reviewed.
func (s *Submission) Approve(reviewer uuid.UUID, coins int64, at time.Time) error {
	if s.Status != SubmissionStatusPending {
		return ErrAlreadyReviewed
	}
	s.Status = SubmissionStatusApproved
	s.ReviewedBy = &reviewer
	s.ReviewedAt = &at
	s.CoinsAwarded = &coins
	return nil
}

// Reject records a negative review; an empty reason gets the default text.
func (s *Submission) Reject(reviewer uuid.UUID, reason string, at time.Time) error {
	if s.Status != SubmissionStatusPending {
		return ErrAlreadyReviewed
	}
	if reason == "" {
		reason = DefaultRejectionReason
	}
	s.Status = SubmissionStatusRejected
	s.ReviewedBy = &reviewer
	s.ReviewedAt = &at
	s.RejectionReason = reason
	return nil
}
