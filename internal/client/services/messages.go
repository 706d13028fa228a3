package services

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/dmitrijs2005/datingapp/internal/cryptox"
)

// Unreadable replaces content that cannot be decrypted with the local key.
const Unreadable = "<unable to decrypt>"

type MessageAPI interface {
	SendMessage(ctx context.Context, recipient, content string) (*client.Message, error)
	Messages(ctx context.Context, container string, page int) ([]client.Message, *client.Pagination, error)
	Thread(ctx context.Context, username string) ([]client.Message, error)
}

type MessageService struct {
	api  MessageAPI
	keys *Keyring
}

func NewMessageService(api MessageAPI, keys *Keyring) *MessageService {
	return &MessageService{api: api, keys: keys}
}

// Send encrypts text before it leaves the machine. The returned message
// carries the plain text.
func (m *MessageService) Send(ctx context.Context, recipient, text string) (*client.Message, error) {
	pub, err := m.keys.PublicKey()
	if err != nil {
		return nil, err
	}
	enc, err := cryptox.EncryptMessage(pub, text)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}
	msg, err := m.api.SendMessage(ctx, recipient, enc)
	if err != nil {
		return nil, err
	}
	msg.Content = text
	return msg, nil
}

func (m *MessageService) List(ctx context.Context, container string, page int) ([]client.Message, *client.Pagination, error) {
	msgs, p, err := m.api.Messages(ctx, container, page)
	if err != nil {
		return nil, nil, err
	}
	if err := m.decrypt(msgs); err != nil {
		return nil, nil, err
	}
	return msgs, p, nil
}

func (m *MessageService) Thread(ctx context.Context, username string) ([]client.Message, error) {
	msgs, err := m.api.Thread(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := m.decrypt(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (m *MessageService) decrypt(msgs []client.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	priv, err := m.keys.PrivateKey()
	if err != nil {
		return err
	}
	for i := range msgs {
		msgs[i].Content = open(priv, msgs[i].Content)
	}
	return nil
}

func open(priv *rsa.PrivateKey, content string) string {
	pt, err := cryptox.DecryptMessage(priv, content)
	if err != nil {
		return Unreadable
	}
	return pt
}
