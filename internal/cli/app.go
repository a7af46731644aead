// Package cli is the command-line front end of the TrackSwift client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trackswift/internal/apiclient"
	"trackswift/internal/config"
	"trackswift/internal/events"
	"trackswift/internal/query"
	"trackswift/internal/session"
	"trackswift/internal/views"
)

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in, run `trackswift login` first")

// App owns the client's long-lived objects for one invocation.
type App struct {
	cfg *config.ClientConfig
	in  *bufio.Reader
	out io.Writer
	log zerolog.Logger

	assumeYes bool

	mu sync.Mutex
	// toasted is set once an error has been shown to the user.
	toasted bool

	redis     *redis.Client
	env       *views.Env
	stopCache func()
}

func NewApp(cfg *config.ClientConfig, in io.Reader, out io.Writer, log zerolog.Logger) *App {
	return &App{cfg: cfg, in: bufio.NewReader(in), out: out, log: log}
}

func (a *App) storage() (session.Storage, error) {
	switch a.cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStorage(), nil
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		return session.NewRedisStorage(a.redis, a.cfg.RedisPrefix), nil
	case "file", "":
		return session.NewFileStorage(a.cfg.SessionFile), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", a.cfg.SessionBackend)
	}
}

// Setup restores the session and wires the views.
func (a *App) Setup(ctx context.Context) error {
	if a.env != nil {
		return nil
	}
	store, err := a.storage()
	if err != nil {
		return err
	}
	sess := session.New(store, a.log.With().Str("component", "session").Logger())
	if err := sess.Init(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	bus := events.NewBus()
	cache := query.New(a.cfg.CacheSize, a.cfg.CacheTTL, a.log.With().Str("component", "cache").Logger())
	a.stopCache = cache.Attach(bus)

	a.env = &views.Env{
		API:     apiclient.New(a.cfg.APIURL, a.cfg.HTTPTimeout, sess, a.log.With().Str("component", "api").Logger()),
		Session: sess,
		Cache:   cache,
		Bus:     bus,
		Notify:  a,
		Confirm: a,
		Log:     a.log,
		Now:     time.Now,
	}
	return nil
}

// Close releases what Setup opened.
func (a *App) Close() {
	if a.stopCache != nil {
		a.stopCache()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *App) requireLogin() error {
	if a.env == nil || !a.env.Session.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	return nil
}

// --- NOTIFIER & CONFIRMER ---

func (a *App) Success(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "✔ %s\n", msg)
}

func (a *App) Error(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.toasted = true
	fmt.Fprintf(a.out, "✖ %s\n", msg)
}

// Confirm reads y/N from the input unless --yes was given.
func (a *App) Confirm(prompt string) bool {
	if a.assumeYes {
		return true
	}
	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
