package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/client/client"
	"github.com/dmitrijs2005/datingapp/internal/client/config"
	"github.com/dmitrijs2005/datingapp/internal/client/services"
	"github.com/dmitrijs2005/datingapp/internal/filex"
)

const (
	databaseFile        = "client.db"
	onlineCheckInterval = 10 * time.Second
)

type authService interface {
	Register(ctx context.Context, in client.RegisterRequest) (*client.User, error)
	Login(ctx context.Context, username string, password []byte) (*client.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type photoService interface {
	Upload(ctx context.Context, path string) (*client.Photo, error)
	List(ctx context.Context) ([]client.Photo, error)
	SetMain(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type messageService interface {
	Send(ctx context.Context, recipient, text string) (*client.Message, error)
	List(ctx context.Context, container string, page int) ([]client.Message, *client.Pagination, error)
	Thread(ctx context.Context, username string) ([]client.Message, error)
}

type keyring interface {
	Generate(bits int, overwrite bool) error
	Dir() string
}

type App struct {
	config   *config.Config
	db       *sql.DB
	auth     authService
	photos   photoService
	messages messageService
	keys     keyring
	reader   *bufio.Reader
	out      io.Writer
	userName string
	online   atomic.Bool
}

// NewApp opens the local database under the data directory and wires the
// services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := services.NewSessionStore(db)
	api := client.NewAPIClient(c.ServerURL, c.RequestTimeout, store)
	keys := services.NewKeyring(dir)

	app := &App{
		config:   c,
		db:       db,
		auth:     services.NewAuthService(api, store),
		photos:   services.NewPhotoService(api, store),
		messages: services.NewMessageService(api, keys),
		keys:     keys,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}

	if name, err := app.auth.CurrentUser(ctx); err == nil {
		app.userName = name
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	fmt.Fprintln(a.out, "Welcome to the dating CLI (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	s := "offline"
	if a.online.Load() {
		s = "online"
	}
	if a.userName != "" {
		s = a.userName + " " + s
	}
	return "(" + s + ")"
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	a.online.Store(a.auth.Ping(ctx) == nil)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// report prints err in a form suitable for the terminal and returns it.
func (a *App) report(err error) error {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrNotSignedIn):
		fmt.Fprintln(a.out, "Please login first")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	case errors.As(err, &apiErr):
		fmt.Fprintln(a.out, "Error:", apiErr.Message)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
	return err
}
