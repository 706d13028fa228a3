package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/stretchr/testify/require"
)

func newKeyring(t *testing.T) *Keyring {
	t.Helper()
	k := NewKeyring(filepath.Join(t.TempDir(), "keys"))
	require.NoError(t, k.Generate(1024, false))
	return k
}

func TestKeyring_GenerateKeepsExisting(t *testing.T) {
	k := newKeyring(t)
	before, err := os.ReadFile(filepath.Join(k.Dir(), PrivateKeyFile))
	require.NoError(t, err)

	require.Error(t, k.Generate(1024, false))

	after, err := os.ReadFile(filepath.Join(k.Dir(), PrivateKeyFile))
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.NoError(t, k.Generate(1024, true))
	after, err = os.ReadFile(filepath.Join(k.Dir(), PrivateKeyFile))
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestKeyring_MissingKeys(t *testing.T) {
	k := NewKeyring(t.TempDir())
	_, err := k.PublicKey()
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = k.PrivateKey()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMessageService_SendEncryptsAndInboxDecrypts(t *testing.T) {
	k := newKeyring(t)
	api := &fakeAPI{}
	svc := NewMessageService(api, k)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "todd", "hi todd")
	require.NoError(t, err)
	require.Equal(t, "hi todd", msg.Content)
	require.Len(t, api.Sent, 1)
	require.NotEqual(t, "hi todd", api.Sent[0])

	api.Inbox = []client.Message{
		{ID: 1, SenderUsername: "lisa", Content: api.Sent[0]},
		{ID: 2, SenderUsername: "lisa", Content: "plain text from elsewhere"},
	}

	msgs, p, err := svc.List(ctx, "Inbox", 1)
	require.NoError(t, err)
	require.Equal(t, 2, p.TotalItems)
	require.Equal(t, "hi todd", msgs[0].Content)
	require.Equal(t, Unreadable, msgs[1].Content)

	thread, err := svc.Thread(ctx, "lisa")
	require.NoError(t, err)
	require.Equal(t, "lisa", api.ThreadOf)
	require.Len(t, thread, 2)
}

func TestMessageService_SendWithoutKeys(t *testing.T) {
	api := &fakeAPI{}
	svc := NewMessageService(api, NewKeyring(t.TempDir()))

	_, err := svc.Send(context.Background(), "todd", "hi")
	require.Error(t, err)
	require.Empty(t, api.Sent)
}

func TestMessageService_EmptyInboxNeedsNoKey(t *testing.T) {
	svc := NewMessageService(&fakeAPI{}, NewKeyring(t.TempDir()))
	msgs, _, err := svc.List(context.Background(), "Unread", 1)
	require.NoError(t, err)
	require.Empty(t, msgs)
}
