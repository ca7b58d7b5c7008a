package providers

import (
	"github.com/samber/do/v2"

	"github.com/NickLinnik/LocalLibrary/internal/auth"
	"github.com/NickLinnik/LocalLibrary/internal/config"
	"github.com/NickLinnik/LocalLibrary/internal/logger"
	"github.com/NickLinnik/LocalLibrary/internal/ratelimit"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Auth.KeyDir)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded", "dir", cfg.Auth.KeyDir, "session_ttl", cfg.Session.TTL)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	authKey := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService([]byte(authKey))
}

// ProvidePasswordHasher provides the argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.DefaultArgon2Params), nil
}

// LoginLimiterHandle wraps the per-IP login limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the login attempt limiter.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, limiterIdleTTL)
	return &LoginLimiterHandle{KeyedRateLimiter: limiter}, nil
}
