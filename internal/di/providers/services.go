package providers

import (
	"github.com/samber/do/v2"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/auth"
	"github.com/NickLinnik/LocalLibrary/internal/config"
	"github.com/NickLinnik/LocalLibrary/internal/logger"
	"github.com/NickLinnik/LocalLibrary/internal/metrics"
	"github.com/NickLinnik/LocalLibrary/internal/service"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideAuditRecorder provides the audit log recorder.
func ProvideAuditRecorder(i do.Injector) (*audit.Recorder, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return audit.NewRecorder(storeHandle.Store, log.Logger), nil
}

// ProvideCatalog provides the catalog service.
func ProvideCatalog(i do.Injector) (*service.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	recorder := do.MustInvoke[*audit.Recorder](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalog(storeHandle.Store, recorder, indexHandle.Index, m, service.CatalogOptions{
		CounterWord: cfg.Catalog.CounterWord,
		GenreSuffix: cfg.Catalog.GenreSuffix,
	}, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionHandle := do.MustInvoke[*SessionStoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		sessionHandle.Store,
		tokens,
		hasher,
		limiter.KeyedRateLimiter,
		m,
		log.Logger,
	), nil
}
