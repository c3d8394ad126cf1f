// Package notify delivers task notifications: it stores them, renders
// their templates and emails them through SMTP.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingsStore loads the stored email settings
type SettingsStore interface {
	EmailSettings(ctx context.Context) (*models.EmailSettings, error)
}

// SettingsCache keeps the email settings row for ttl. The lock is not held
// while fetching, so concurrent expiries may fetch twice; the last fetch wins.
type SettingsCache struct {
	store SettingsStore
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	mu        sync.Mutex
	cached    *models.EmailSettings
	fetchedAt time.Time
}

// NewSettingsCache creates a SettingsCache using the wall clock
func NewSettingsCache(store SettingsStore, ttl time.Duration, log *zap.Logger) *SettingsCache {
	return &SettingsCache{store: store, ttl: ttl, now: time.Now, log: log}
}

// Get returns the cached settings while fresh and re-fetches otherwise. It
// returns nil when no settings are stored or the fetch fails.
func (c *SettingsCache) Get(ctx context.Context) *models.EmailSettings {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		settings := c.cached
		c.mu.Unlock()
		return settings
	}
	c.mu.Unlock()

	settings, err := c.store.EmailSettings(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.log.Warn("no email settings stored, falling back to environment")
		} else {
			c.log.Error("failed to fetch email settings", zap.Error(err))
		}
		return nil
	}

	c.mu.Lock()
	c.cached = settings
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return settings
}

// Invalidate drops the cached settings
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
