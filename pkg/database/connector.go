package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrUnavailable is returned while the store is disconnected
var ErrUnavailable = errors.New("database unavailable")

// Provider hands out the current *gorm.DB or ErrUnavailable
type Provider interface {
	DB() (*gorm.DB, error)
}

// Opener opens a new connection pool
type Opener func() (*gorm.DB, error)

// Hook runs after every successful (re)connect, e.g. migrations and seeding
type Hook func(db *gorm.DB) error

// RetryPolicy controls the background reconnect loop.
// MaxAttempts <= 0 retries until Close.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Connector owns the connection pool and reconnects it in the background
type Connector struct {
	open   Opener
	policy RetryPolicy
	hooks  []Hook

	mu sync.RWMutex
	db *gorm.DB

	available    atomic.Bool
	reconnecting atomic.Bool
	closed       chan struct{}
	closeOnce    sync.Once

	// OnStateChange is called with the new availability on every transition
	OnStateChange func(available bool)
}

// NewConnector creates a Connector. Nothing is opened until Connect.
func NewConnector(open Opener, policy RetryPolicy, hooks ...Hook) *Connector {
	if policy.Interval <= 0 {
		policy.Interval = 10 * time.Second
	}
	return &Connector{
		open:   open,
		policy: policy,
		hooks:  hooks,
		closed: make(chan struct{}),
	}
}

// Connect opens the pool once, runs hooks and marks the store available
func (c *Connector) Connect(ctx context.Context) error {
	db, err := c.open()
	if err != nil {
		c.setAvailable(false)
		return fmt.Errorf("open database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			c.setAvailable(false)
			return fmt.Errorf("ping database: %w", err)
		}
	}

	for _, hook := range c.hooks {
		if err := hook(db); err != nil {
			pkglogger.Warn("database hook failed: %v", err)
		}
	}

	c.mu.Lock()
	old := c.db
	c.db = db
	c.mu.Unlock()

	if old != nil && old != db {
		if sqlDB, err := old.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	c.setAvailable(true)
	return nil
}

// DB returns the live handle, or ErrUnavailable during an outage
func (c *Connector) DB() (*gorm.DB, error) {
	if !c.available.Load() {
		return nil, ErrUnavailable
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrUnavailable
	}
	return c.db, nil
}

// Available reports whether the last connect succeeded and no outage was seen since
func (c *Connector) Available() bool {
	return c.available.Load()
}

// Ping checks the live pool
func (c *Connector) Ping(ctx context.Context) error {
	db, err := c.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// OpenConnections returns the number of open connections of the live pool
func (c *Connector) OpenConnections() int {
	db, err := c.DB()
	if err != nil {
		return 0
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0
	}
	return sqlDB.Stats().OpenConnections
}

// TriggerReconnect marks the store unavailable and starts the background
// reconnect loop unless one is already running. It never blocks.
func (c *Connector) TriggerReconnect() {
	c.setAvailable(false)
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go c.reconnectLoop()
}

func (c *Connector) reconnectLoop() {
	defer c.reconnecting.Store(false)

	for attempt := 1; ; attempt++ {
		select {
		case <-c.closed:
			return
		case <-time.After(c.policy.Interval):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.policy.Interval)
		err := c.Connect(ctx)
		cancel()
		if err == nil {
			pkglogger.Info("database reconnected after %d attempt(s)", attempt)
			return
		}

		pkglogger.Warn("database reconnect attempt %d failed: %v", attempt, err)
		if c.policy.MaxAttempts > 0 && attempt >= c.policy.MaxAttempts {
			pkglogger.Error("database reconnect gave up after %d attempts", attempt)
			return
		}
	}
}

// Close stops reconnecting and closes the pool
func (c *Connector) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	c.setAvailable(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.db = nil
	return sqlDB.Close()
}

func (c *Connector) setAvailable(v bool) {
	if c.available.Swap(v) != v && c.OnStateChange != nil {
		c.OnStateChange(v)
	}
}

// Static wraps an already open handle, used by tests and tools
type Static struct {
	Handle *gorm.DB
}

// DB implements Provider
func (s Static) DB() (*gorm.DB, error) {
	if s.Handle == nil {
		return nil, ErrUnavailable
	}
	return s.Handle, nil
}
