// Package di provides dependency injection configuration for the catalog server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/auth"
	"github.com/NickLinnik/LocalLibrary/internal/config"
	"github.com/NickLinnik/LocalLibrary/internal/di/providers"
	"github.com/NickLinnik/LocalLibrary/internal/logger"
	"github.com/NickLinnik/LocalLibrary/internal/metrics"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Services are built lazily, so tools that only need the catalog never
// start the HTTP server.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideAuditRecorder)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideAuthService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*metrics.Metrics](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SessionStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*audit.Recorder](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	// Business services
	if _, err := do.Invoke[*service.Catalog](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.AuthService](injector); err != nil {
		return err
	}

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
