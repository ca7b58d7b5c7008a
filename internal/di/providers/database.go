package providers

import (
	"github.com/samber/do/v2"

	"github.com/NickLinnik/LocalLibrary/internal/config"
	"github.com/NickLinnik/LocalLibrary/internal/logger"
	"github.com/NickLinnik/LocalLibrary/internal/session"
	"github.com/NickLinnik/LocalLibrary/internal/store/sqlite"
)

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)

	return &StoreHandle{Store: db}, nil
}

// SessionStoreHandle wraps the session store with shutdown capability.
type SessionStoreHandle struct {
	*session.Store
	logger *logger.Logger
}

// Shutdown implements do.Shutdownable. Space held by expired sessions is
// reclaimed before the store closes.
func (h *SessionStoreHandle) Shutdown() error {
	if n, err := h.CollectGarbage(); err != nil {
		h.logger.Warn("Session garbage collection failed", "error", err)
	} else if n > 0 {
		h.logger.Info("Session garbage collection completed", "rewritten", n)
	}
	return h.Close()
}

// ProvideSessionStore provides the Badger session store.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessions, err := session.Open(cfg.Session.Path, cfg.Session.TTL, log.Logger)
	if err != nil {
		return nil, err
	}
	return &SessionStoreHandle{Store: sessions, logger: log}, nil
}
