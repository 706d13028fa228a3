// Package messages persists direct messages between members.
package messages

import (
	"context"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	Get(ctx context.Context, id int64) (*models.Message, error)
	// List returns one page of the container selected by f, newest first.
	List(ctx context.Context, f models.MessageFilter) (*models.Page[*models.Message], error)
	// Thread returns the conversation between current and other, oldest
	// first, without messages current has deleted.
	Thread(ctx context.Context, current, other string) ([]*models.Message, error)
	MarkRead(ctx context.Context, ids []int64, at time.Time) error
	UpdateDeleted(ctx context.Context, id int64, senderDeleted, recipientDeleted bool) error
	Delete(ctx context.Context, id int64) error
}
