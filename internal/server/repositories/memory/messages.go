package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type MessagesRepository struct {
	s *Store
}

func (r *MessagesRepository) withPhotos(m *models.Message) *models.Message {
	c := *m
	c.SenderPhotoURL = r.s.mainPhotoURL(m.SenderID)
	c.RecipientPhotoURL = r.s.mainPhotoURL(m.RecipientID)
	return &c
}

func (r *MessagesRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextMsg++
	m.ID = r.s.nextMsg
	m.MessageSent = time.Now()
	c := *m
	r.s.messages[m.ID] = &c
	return m, nil
}

func (r *MessagesRepository) Get(ctx context.Context, id int64) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.withPhotos(m), nil
}

func inContainer(m *models.Message, username, container string) bool {
	switch container {
	case models.ContainerInbox:
		return m.RecipientUsername == username && !m.RecipientDeleted
	case models.ContainerOutbox:
		return m.SenderUsername == username && !m.SenderDeleted
	default:
		return m.RecipientUsername == username && !m.RecipientDeleted && m.DateRead == nil
	}
}

func (r *MessagesRepository) List(ctx context.Context, f models.MessageFilter) (*models.Page[*models.Message], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Message
	for _, m := range r.s.messages {
		if inContainer(m, f.Username, f.Container) {
			out = append(out, r.withPhotos(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.PageNumber, f.PageSize), nil
}

func (r *MessagesRepository) Thread(ctx context.Context, current, other string) ([]*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Message{}
	for _, m := range r.s.messages {
		incoming := m.RecipientUsername == current && m.SenderUsername == other && !m.RecipientDeleted
		outgoing := m.SenderUsername == current && m.RecipientUsername == other && !m.SenderDeleted
		if incoming || outgoing {
			out = append(out, r.withPhotos(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MessagesRepository) MarkRead(ctx context.Context, ids []int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		if m, ok := r.s.messages[id]; ok {
			t := at
			m.DateRead = &t
		}
	}
	return nil
}

func (r *MessagesRepository) UpdateDeleted(ctx context.Context, id int64, senderDeleted, recipientDeleted bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok {
		return common.ErrorNotFound
	}
	m.SenderDeleted = senderDeleted
	m.RecipientDeleted = recipientDeleted
	return nil
}

func (r *MessagesRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.messages, id)
	return nil
}
