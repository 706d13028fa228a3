package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *SessionStore {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionStore(db)
}

// fakeAPI implements AuthAPI, PhotoAPI and MessageAPI.
type fakeAPI struct {
	RegisterRet *client.User
	RegisterErr error
	LoginRet    *client.User
	LoginErr    error
	PingErr     error

	LastLoginUser string
	LastLoginPass string

	MemberRet   *client.Member
	LastMember  string
	AddPhotoErr error
	LastFile    string
	LastData    []byte
	MainID      int64
	DeletedID   int64

	Sent     []string
	Inbox    []client.Message
	SendErr  error
	ThreadOf string
}

func (f *fakeAPI) Register(ctx context.Context, in client.RegisterRequest) (*client.User, error) {
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*client.User, error) {
	f.LastLoginUser, f.LastLoginPass = username, password
	return f.LoginRet, f.LoginErr
}

func (f *fakeAPI) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeAPI) Member(ctx context.Context, username string) (*client.Member, error) {
	f.LastMember = username
	return f.MemberRet, nil
}

func (f *fakeAPI) AddPhoto(ctx context.Context, filename string, data []byte) (*client.Photo, error) {
	f.LastFile, f.LastData = filename, data
	if f.AddPhotoErr != nil {
		return nil, f.AddPhotoErr
	}
	return &client.Photo{ID: 1, URL: "https://img.test/1", IsMain: true}, nil
}

func (f *fakeAPI) SetMainPhoto(ctx context.Context, id int64) error {
	f.MainID = id
	return nil
}

func (f *fakeAPI) DeletePhoto(ctx context.Context, id int64) error {
	f.DeletedID = id
	return nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, recipient, content string) (*client.Message, error) {
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.Sent = append(f.Sent, content)
	return &client.Message{ID: int64(len(f.Sent)), RecipientUsername: recipient, Content: content}, nil
}

func (f *fakeAPI) Messages(ctx context.Context, container string, page int) ([]client.Message, *client.Pagination, error) {
	return f.Inbox, &client.Pagination{CurrentPage: page, TotalItems: len(f.Inbox)}, nil
}

func (f *fakeAPI) Thread(ctx context.Context, username string) ([]client.Message, error) {
	f.ThreadOf = username
	return f.Inbox, nil
}
