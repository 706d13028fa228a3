package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	mu              sync.Mutex
	access, refresh string
	saves           int
}

func (m *memTokens) Tokens(context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.access == "" {
		return "", "", ErrNotSignedIn
	}
	return m.access, m.refresh, nil
}

func (m *memTokens) SaveTokens(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	m.saves++
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_DecodesSessionAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "Passw0rd!" {
			writeJSON(w, http.StatusUnauthorized, APIError{StatusCode: 401, Message: "Invalid password"})
			return
		}
		writeJSON(w, http.StatusOK, User{Username: body["username"], Token: "a", RefreshToken: "r"})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, &memTokens{})

	u, err := c.Login(context.Background(), "alice", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a", u.Token)

	_, err = c.Login(context.Background(), "alice", "nope")
	require.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid password", apiErr.Message)
}

func TestAuthenticatedRequest_RefreshesOnce(t *testing.T) {
	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/account/refreshToken", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "old-access", body["token"])
		assert.Equal(t, "old-refresh", body["refreshToken"])
		refreshes++
		writeJSON(w, http.StatusOK, User{Username: "alice", Token: "new-access", RefreshToken: "new-refresh"})
	})
	mux.HandleFunc("/api/users/add-photo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(common.AuthorizationHeaderName) != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, []byte("png bytes"), data)
		writeJSON(w, http.StatusCreated, Photo{ID: 7, URL: "https://img/7", IsMain: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := &memTokens{access: "old-access", refresh: "old-refresh"}
	c := NewAPIClient(srv.URL, time.Second, tokens)

	p, err := c.AddPhoto(context.Background(), "me.png", []byte("png bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.True(t, p.IsMain)
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, "new-access", tokens.access)
	assert.Equal(t, "new-refresh", tokens.refresh)
}

func TestAuthenticatedRequest_RefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, APIError{StatusCode: 401, Message: "token expired"})
	}))
	defer srv.Close()

	tokens := &memTokens{access: "a", refresh: "r"}
	c := NewAPIClient(srv.URL, time.Second, tokens)

	err := c.SetMainPhoto(context.Background(), 3)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, tokens.saves)
}

func TestNotSignedIn(t *testing.T) {
	c := NewAPIClient("http://127.0.0.1:1", time.Second, &memTokens{})
	err := c.DeletePhoto(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMessages_ReadsPaginationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Inbox", r.URL.Query().Get("container"))
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		w.Header().Set(common.PaginationHeaderName, `{"currentPage":2,"itemsPerPage":10,"totalItems":11,"totalPages":2}`)
		writeJSON(w, http.StatusOK, []Message{{ID: 1, SenderUsername: "bob", Content: "x"}})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, &memTokens{access: "a"})
	msgs, page, err := c.Messages(context.Background(), "Inbox", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, Pagination{CurrentPage: 2, ItemsPerPage: 10, TotalItems: 11, TotalPages: 2}, *page)
}

func TestAPIError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, time.Second, &memTokens{})
	err := c.Ping(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, time.Second, &memTokens{})
	err := c.Ping(context.Background())
	require.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
}

func TestInitDatabase_Migrates(t *testing.T) {
	db, err := InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO session (key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)
}
