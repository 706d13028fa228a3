package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
)

// Notifier is told about messages after they are stored.
type Notifier interface {
	NewMessage(ctx context.Context, msg *models.Message)
}

type MessageService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	logger      logging.Logger
	now         func() time.Time
}

// NewMessageService builds the service. notifier may be nil.
func NewMessageService(tx dbx.Transactor, m repomanager.RepositoryManager, notifier Notifier, logger logging.Logger) *MessageService {
	return &MessageService{
		tx:          tx,
		repomanager: m,
		notifier:    notifier,
		logger:      logger.With("module", "messages"),
		now:         time.Now,
	}
}

// Send stores content from sender to recipient and notifies the recipient.
func (s *MessageService) Send(ctx context.Context, sender, recipient, content string) (*models.Message, error) {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if sender == recipient {
		return nil, ErrMessageSelf
	}

	users := s.repomanager.Users(s.tx.DB())
	from, err := users.GetUserByLogin(ctx, sender)
	if err != nil {
		return nil, err
	}
	to, err := users.GetUserByLogin(ctx, recipient)
	if err != nil {
		return nil, err
	}

	msg, err := s.repomanager.Messages(s.tx.DB()).Create(ctx, &models.Message{
		SenderID:          from.ID,
		SenderUsername:    from.UserName,
		RecipientID:       to.ID,
		RecipientUsername: to.UserName,
		Content:           content,
		MessageSent:       s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NewMessage(ctx, msg)
	}
	return msg, nil
}

// List returns one page of a message container, Unread by default.
func (s *MessageService) List(ctx context.Context, username, container string, pageNumber, pageSize int) (*models.Page[*models.Message], error) {
	switch container {
	case "":
		container = models.ContainerUnread
	case models.ContainerUnread, models.ContainerInbox, models.ContainerOutbox:
	default:
		return nil, fmt.Errorf("%w: unknown container %q", common.ErrorValidation, container)
	}

	number, size := normalizePage(pageNumber, pageSize)
	return s.repomanager.Messages(s.tx.DB()).List(ctx, models.MessageFilter{
		Username:   username,
		Container:  container,
		PageNumber: number,
		PageSize:   size,
	})
}

// Thread returns the conversation between current and other and marks the
// messages current had not read yet.
func (s *MessageService) Thread(ctx context.Context, current, other string) ([]*models.Message, error) {
	repo := s.repomanager.Messages(s.tx.DB())

	msgs, err := repo.Thread(ctx, current, strings.ToLower(other))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var unread []int64
	for _, m := range msgs {
		if m.RecipientUsername == current && m.DateRead == nil {
			unread = append(unread, m.ID)
			m.DateRead = &now
		}
	}
	if len(unread) > 0 {
		if err := repo.MarkRead(ctx, unread, now); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// Delete hides the message for username. The row is removed once both sides
// have deleted it.
func (s *MessageService) Delete(ctx context.Context, username string, id int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messages(tx)

		msg, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if msg.SenderUsername != username && msg.RecipientUsername != username {
			return common.ErrorUnauthorized
		}

		senderDeleted := msg.SenderDeleted || msg.SenderUsername == username
		recipientDeleted := msg.RecipientDeleted || msg.RecipientUsername == username

		if senderDeleted && recipientDeleted {
			err = repo.Delete(ctx, id)
		} else {
			err = repo.UpdateDeleted(ctx, id, senderDeleted, recipientDeleted)
		}
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return err
			}
			s.logger.Error(ctx, "deleting message failed", "message_id", id, "error", err)
			return ErrDeleteMessage
		}
		return nil
	})
}
