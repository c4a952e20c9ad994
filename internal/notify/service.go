package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/microearn/backend/internal/models"
)

const inboxLimit = 50

// InboxStore reads and updates persisted notifications.
type InboxStore interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, accountID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type Inbox struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

type Service struct {
	store InboxStore
}

func NewService(store InboxStore) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, actor models.Actor, unreadOnly bool) (*Inbox, error) {
	list, err := s.store.ListByAccount(ctx, actor.ID, unreadOnly, inboxLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return &Inbox{Notifications: list, UnreadCount: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	return s.store.MarkRead(ctx, actor.ID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, actor models.Actor) (int64, error) {
	return s.store.MarkAllRead(ctx, actor.ID)
}
