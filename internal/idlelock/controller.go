// Package idlelock protects idle authenticated sessions behind a
// lockscreen. Two states, one invariant: the lock engages only after the
// idle threshold elapses with no observed activity, and only a matching
// email (or full logout) releases it.
package idlelock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/clock"
	"github.com/hlms/hlms-client/pkg/logger"
	"github.com/hlms/hlms-client/pkg/metrics"
	"go.uber.org/zap"
)

// ErrUnlockMismatch is returned when the candidate email does not match the
// session user. The lock stays engaged; there is no attempt limit.
var ErrUnlockMismatch = errors.New("email does not match the locked session")

// SessionReader exposes the current session to read-only observers.
type SessionReader interface {
	Current() *models.Session
}

// Controller is the idle lock state machine. All transitions are a single
// locked update of one flag and one timestamp, so activity resets and the
// periodic check never race each other.
type Controller struct {
	mu           sync.Mutex
	clk          clock.Clock
	sessions     SessionReader
	threshold    time.Duration
	lastActivity time.Time
	locked       bool
}

// New creates an unlocked controller. The timer is armed lazily: until a
// session is authenticated, elapsed idle time is ignored.
func New(sessions SessionReader, threshold time.Duration, clk clock.Clock) *Controller {
	return &Controller{
		clk:          clk,
		sessions:     sessions,
		threshold:    threshold,
		lastActivity: clk.Now(),
	}
}

// Activity records a user-interaction event (pointer move, key press,
// click, scroll, any one of them). Last write wins. Activity while locked
// does not feed the timer; only Unlock releases the lock.
func (c *Controller) Activity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return
	}
	c.lastActivity = c.clk.Now()
}

// IsLocked reports whether the lockscreen is engaged.
func (c *Controller) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// CheckNow evaluates the idle threshold once. It is called by the Run loop
// every tick and directly by tests.
func (c *Controller) CheckNow() {
	session := c.sessions.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !session.IsAuthenticated() {
		// No session, no locking.
		c.locked = false
		return
	}
	if c.locked {
		return
	}
	if c.clk.Now().Sub(c.lastActivity) >= c.threshold {
		c.locked = true
		metrics.SessionLocks.Inc()
		logger.Info("Session locked after idle timeout",
			zap.Duration("threshold", c.threshold))
	}
}

// Run drives the periodic check until ctx is cancelled. The granularity is
// coarse; interval is typically one second.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckNow()
		}
	}
}

// Unlock releases the lock when candidateEmail matches the session user's
// email, compared case-insensitively after trimming. On success the
// activity timer restarts from now. Unlocking an already-unlocked
// controller is a no-op.
func (c *Controller) Unlock(candidateEmail string) error {
	session := c.sessions.Current()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.locked {
		return nil
	}

	if !emailsMatch(candidateEmail, session.Email()) {
		metrics.UnlockAttempts.WithLabelValues("mismatch").Inc()
		return ErrUnlockMismatch
	}

	c.locked = false
	c.lastActivity = c.clk.Now()
	metrics.UnlockAttempts.WithLabelValues("success").Inc()
	logger.Info("Session unlocked")
	return nil
}

// Reset force-unlocks and restarts the timer. Called on session teardown;
// logout never leaves a locked ghost session behind.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked = false
	c.lastActivity = c.clk.Now()
}

func emailsMatch(candidate, actual string) bool {
	if actual == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(actual))
}
