package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationSubmissionCreated   NotificationType = "submission_created"
	NotificationSubmissionApproved  NotificationType = "submission_approved"
	NotificationSubmissionRejected  NotificationType = "submission_rejected"
	NotificationTaskCompleted       NotificationType = "task_completed"
	NotificationWithdrawalApproved  NotificationType = "withdrawal_approved"
	NotificationWithdrawalRejected  NotificationType = "withdrawal_rejected"
	NotificationWithdrawalProcessed NotificationType = "withdrawal_processed"
	NotificationPaymentSucceeded    NotificationType = "payment_succeeded"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	AccountID uuid.UUID        `json:"account_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RelatedID *uuid.UUID       `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
