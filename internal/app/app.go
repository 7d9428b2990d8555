// Package app assembles the session kernel: store, auth state, idle lock,
// route guard and toast queue, wired into one explicitly constructed
// context object with a defined lifecycle. Nothing here is ambient global
// state; the UI embedding this library holds one *App and passes it down.
package app

import (
	"context"

	"github.com/hlms/hlms-client/config"
	"github.com/hlms/hlms-client/internal/auth"
	"github.com/hlms/hlms-client/internal/authapi"
	"github.com/hlms/hlms-client/internal/idlelock"
	"github.com/hlms/hlms-client/internal/routeguard"
	"github.com/hlms/hlms-client/internal/storage"
	"github.com/hlms/hlms-client/internal/toast"
	"github.com/hlms/hlms-client/pkg/clock"
	"github.com/hlms/hlms-client/pkg/httpclient"
)

// App is the client application context.
type App struct {
	Store  *storage.SessionStore
	Auth   *auth.State
	Lock   *idlelock.Controller
	Guard  *routeguard.Guard
	Toasts *toast.Queue

	cfg    config.ClientConfig
	cancel context.CancelFunc
}

// New wires the components together from config. The API client rides on
// the provided HTTP transport; pass httpclient.NewStandardClient() outside
// tests.
func New(cfg config.ClientConfig, transport httpclient.Client) *App {
	return NewWithClock(cfg, transport, clock.System())
}

// NewWithClock is New with an injectable clock for deterministic tests.
func NewWithClock(cfg config.ClientConfig, transport httpclient.Client, clk clock.Clock) *App {
	store := storage.NewSessionStore(cfg.StoragePath)
	api := authapi.NewClient(cfg.APIBaseURL, transport)
	state := auth.NewState(store, api)
	lock := idlelock.New(state, cfg.IdleThreshold, clk)
	state.SetLockResetter(lock)

	return &App{
		Store:  store,
		Auth:   state,
		Lock:   lock,
		Guard:  routeguard.New(cfg.LoginPath),
		Toasts: toast.NewQueue(),
		cfg:    cfg,
	}
}

// Start rehydrates the session from the store and begins the idle check
// loop. Call Stop to tear everything down.
func (a *App) Start(ctx context.Context) {
	a.Auth.Initialize()

	ctx, a.cancel = context.WithCancel(ctx)
	go a.Lock.Run(ctx, a.cfg.LockCheckInterval)
}

// Stop halts the idle loop and the toast timers. The persisted session is
// left in place; only Logout clears it.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.Toasts.Stop()
}

// Activity forwards a user-interaction event to the idle controller. The
// embedding UI calls this for pointer movement, key presses, clicks and
// scrolls alike.
func (a *App) Activity() {
	a.Lock.Activity()
}
