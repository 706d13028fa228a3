package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/auth"
	"github.com/dmitrijs2005/datingapp/internal/server/config"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/users"
	"github.com/dmitrijs2005/datingapp/internal/server/scanner"
	"github.com/dmitrijs2005/datingapp/internal/server/storage"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.TokenKey = "test-signing-key-that-is-long-enough-for-hs512-0123456789"
	return cfg
}

func newTokens(t *testing.T, ttl time.Duration) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(testConfig().TokenKey, ttl)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func newMemoryAccounts(t *testing.T, rm repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	t.Helper()
	return NewAccountService(dbx.NoTx{}, rm, newTokens(t, cfg.AccessTokenValidityDuration), cfg, logging.Nop{})
}

func mustRegister(t *testing.T, s *AccountService, username, gender string) *Session {
	t.Helper()
	sess, err := s.Register(context.Background(), RegisterInput{Username: username, Password: "Passw0rd!", Gender: gender})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return sess
}

// overrideUsers swaps the users repository of an otherwise real manager.
type overrideUsers struct {
	repomanager.RepositoryManager
	users users.Repository
}

func (m overrideUsers) Users(dbx.DBTX) users.Repository { return m.users }

type failingCreateUsers struct {
	users.Repository
	err error
}

type failingLockUsers struct {
	users.Repository
}

func (failingLockUsers) LockForUpdate(context.Context, string) error { return errBoom{} }

// racingLockUsers runs onLock the first time a lock is requested, standing in
// for another request that commits while this one waits on the row lock.
type racingLockUsers struct {
	users.Repository
	once   sync.Once
	onLock func()
}

func (r *racingLockUsers) LockForUpdate(ctx context.Context, id string) error {
	r.once.Do(r.onLock)
	return r.Repository.LockForUpdate(ctx, id)
}

func (f failingCreateUsers) Create(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}

// --- photo pipeline fakes ---

type fakeScanner struct {
	res *scanner.Result
	err error
}

func (f *fakeScanner) Scan(context.Context, []byte) (*scanner.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.res == nil {
		return &scanner.Result{Status: scanner.StatusClean, Raw: "stream: OK"}, nil
	}
	return f.res, nil
}

// fakeStorage keys objects by owner and content hash, like the S3 backend.
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
	fetchErr  error
	brokenID  string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) Upload(_ context.Context, owner, _ string, data []byte) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	sum := sha256.Sum256(data)
	id := owner + "/" + hex.EncodeToString(sum[:8])

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = data
	return &storage.UploadResult{URL: "https://img.test/" + id, PublicID: id}, nil
}

func (f *fakeStorage) Delete(_ context.Context, publicID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, publicID)
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeStorage) Fetch(_ context.Context, p *models.Photo) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if p.PublicID == f.brokenID {
		return nil, errors.New("connection reset")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[p.PublicID]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

// solidPNG is a w x h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// stripesPNG is a w x h image of vertical black and white stripes.
func stripesPNG(t *testing.T, w, h, period int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/period)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}
