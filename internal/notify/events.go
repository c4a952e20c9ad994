package notify

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/models"
)

func event(to uuid.UUID, typ models.NotificationType, title, message string, related uuid.UUID) models.Notification {
	return models.Notification{
		ID:        uuid.New(),
		AccountID: to,
		Type:      typ,
		Title:     title,
		Message:   message,
		RelatedID: &related,
	}
}

func SubmissionCreated(task *models.Task, sub *models.Submission) models.Notification {
	return event(task.BuyerID, models.NotificationSubmissionCreated,
		"New submission",
		fmt.Sprintf("A worker submitted work for %q.", task.Title), sub.ID)
}

func SubmissionApproved(task *models.Task, sub *models.Submission) models.Notification {
	return event(sub.WorkerID, models.NotificationSubmissionApproved,
		"Submission approved",
		fmt.Sprintf("Your submission for %q was approved. You earned %d coins.", task.Title, task.CoinsPerWorker), sub.ID)
}

func SubmissionRejected(task *models.Task, sub *models.Submission) models.Notification {
	return event(sub.WorkerID, models.NotificationSubmissionRejected,
		"Submission rejected",
		fmt.Sprintf("Your submission for %q was rejected: %s", task.Title, sub.RejectionReason), sub.ID)
}

func TaskCompleted(task *models.Task) models.Notification {
	return event(task.BuyerID, models.NotificationTaskCompleted,
		"Task completed",
		fmt.Sprintf("%q has all the approved submissions it needs.", task.Title), task.ID)
}

func WithdrawalApproved(w *models.Withdrawal) models.Notification {
	return event(w.WorkerID, models.NotificationWithdrawalApproved,
		"Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %d coins ($%s) was approved.", w.Coins, w.Amount.StringFixed(2)), w.ID)
}

func WithdrawalRejected(w *models.Withdrawal) models.Notification {
	return event(w.WorkerID, models.NotificationWithdrawalRejected,
		"Withdrawal rejected",
		fmt.Sprintf("Your withdrawal of %d coins was rejected and refunded: %s", w.Coins, w.RejectionReason), w.ID)
}

func WithdrawalProcessed(w *models.Withdrawal) models.Notification {
	return event(w.WorkerID, models.NotificationWithdrawalProcessed,
		"Withdrawal sent",
		fmt.Sprintf("$%s has been sent via %s.", w.Amount.StringFixed(2), w.PaymentMethod), w.ID)
}

func PaymentSucceeded(p *models.Payment) models.Notification {
	return event(p.BuyerID, models.NotificationPaymentSucceeded,
		"Coins added",
		fmt.Sprintf("%d coins were added to your balance.", p.Coins), p.ID)
}
