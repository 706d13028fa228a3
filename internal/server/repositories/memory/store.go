// Package memory implements the repositories in process memory. It backs the
// "memory" database DSN used for local runs and the HTTP end-to-end tests.
// Transactions are not isolated: every call takes the store lock on its own.
package memory

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/google/uuid"
)

type Store struct {
	mu        sync.Mutex
	users     map[string]*models.User
	roles     map[string][]string
	photos    map[int64]*models.Photo
	messages  map[int64]*models.Message
	tokens    map[string]*models.RefreshToken
	nextPhoto int64
	nextMsg   int64
}

func NewStore() *Store {
	return &Store{
		users:    map[string]*models.User{},
		roles:    map[string][]string{},
		photos:   map[int64]*models.Photo{},
		messages: map[int64]*models.Message{},
		tokens:   map[string]*models.RefreshToken{},
	}
}

func newID() string { return uuid.NewString() }

// userPhotos returns copies of the user's photos ordered by id. Callers hold mu.
func (s *Store) userPhotos(userID string) []*models.Photo {
	out := []*models.Photo{}
	for _, p := range s.photos {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) mainPhotoURL(userID string) string {
	for _, p := range s.photos {
		if p.UserID == userID && p.IsMain {
			return p.URL
		}
	}
	return ""
}

func (s *Store) userByName(username string) *models.User {
	for _, u := range s.users {
		if u.UserName == username {
			return u
		}
	}
	return nil
}

func paginate[T any](items []T, pageNumber, pageSize int) *models.Page[T] {
	page := &models.Page[T]{CurrentPage: pageNumber, PageSize: pageSize, TotalCount: len(items)}
	start := (pageNumber - 1) * pageSize
	if start < 0 || start >= len(items) {
		return page
	}
	end := min(start+pageSize, len(items))
	page.Items = items[start:end]
	return page
}
