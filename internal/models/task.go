package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further submissions or slot changes.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

type Task struct {
	ID                     uuid.UUID  `json:"id"`
	BuyerID                uuid.UUID  `json:"buyer_id"`
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	ImageURL               string     `json:"image_url,omitempty"`
	Category               string     `json:"category"`
	SubmissionInstructions string     `json:"submission_instructions,omitempty"`
	Deadline               *time.Time `json:"deadline,omitempty"`
	CoinsPerWorker         int64      `json:"coins_per_worker"`
	RequiredWorkers        int        `json:"required_workers"`
	CurrentWorkers         int        `json:"current_workers"`
	EscrowedCoins          int64      `json:"escrowed_coins"`
	Status                 TaskStatus `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// EscrowTotal is the amount debited from the buyer when the task is funded.
func (t *Task) EscrowTotal() int64 {
	return t.CoinsPerWorker * int64(t.RequiredWorkers)
}

// AcceptingSubmissions reports whether a new submission may be recorded at now.
func (t *Task) AcceptingSubmissions(now time.Time) bool {
	if t.Status != TaskStatusOpen && t.Status != TaskStatusInProgress {
		return false
	}
	return t.Deadline == nil || now.Before(*t.Deadline)
}

// AcceptSlot takes one capacity unit for a new submission.
func (t *Task) AcceptSlot() error {
	if t.Status.Terminal() {
		return ErrTaskClosed
	}
	if t.CurrentWorkers >= t.RequiredWorkers {
		return ErrTaskFull
	}
	t.CurrentWorkers++
	if t.Status == TaskStatusOpen {
		t.Status = TaskStatusInProgress
	}
	return nil
}

// ReleaseSlot reopens the slot of a rejected submission so a replacement
// worker can take it. The escrow is not topped up. Terminal tasks are left
// untouched and ReleaseSlot reports false.
func (t *Task) ReleaseSlot() bool {
	if t.Status.Terminal() {
		return false
	}
	if t.CurrentWorkers > 0 {
		t.CurrentWorkers--
	}
	t.RequiredWorkers++
	return true
}

// CompleteIfFilled moves the task to completed once approved reaches the
// required worker count. Completing an already completed task is a no-op.
func (t *Task) CompleteIfFilled(approved int) bool {
	if t.Status != TaskStatusOpen && t.Status != TaskStatusInProgress {
		return false
	}
	if approved < t.RequiredWorkers {
		return false
	}
	t.Status = TaskStatusCompleted
	return true
}

// Cancel moves a live task to cancelled.
func (t *Task) Cancel() error {
	if t.Status.Terminal() {
		return ErrInvalidTransition
	}
	t.Status = TaskStatusCancelled
	return nil
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status   TaskStatus
	Category string
	Query    string
	BuyerID  *uuid.UUID
	Page     Page
}
