// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ClassDeck.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: CLASSDECK_MONGO_URI, CLASSDECK_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "classdeck", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Identity provider. Blank base URL selects the in-memory provider,
	// which is only suitable for dev and tests.
	{Name: "identity_base_url", Default: "", Desc: "Identity provider base URL (blank: in-memory provider)"},
	{Name: "identity_api_key", Default: "", Desc: "Static API key for the identity provider"},
	{Name: "identity_client_id", Default: "", Desc: "OAuth2 client-credentials id for the identity provider"},
	{Name: "identity_client_secret", Default: "", Desc: "OAuth2 client-credentials secret"},
	{Name: "identity_token_url", Default: "", Desc: "OAuth2 token endpoint"},
	{Name: "identity_timeout", Default: "10s", Desc: "Per-call identity provider timeout (e.g., 5s, 10s)"},

	{Name: "cache_ttl", Default: "5m", Desc: "TTL for cached list reads (e.g., 30s, 5m)"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have access
// to configuration before any backends or handlers are built. WAFFLE's
// config.LoadWithAppConfig handles .env files, config.yaml/json/toml,
// environment variables (WAFFLE_* for core, CLASSDECK_* for app), and
// command-line flags, merging with precedence: flags > env > files >
// defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLASSDECK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionDomain: appValues.String("session_domain"),

		IdentityBaseURL:      appValues.String("identity_base_url"),
		IdentityAPIKey:       appValues.String("identity_api_key"),
		IdentityClientID:     appValues.String("identity_client_id"),
		IdentityClientSecret: appValues.String("identity_client_secret"),
		IdentityTokenURL:     appValues.String("identity_token_url"),
		IdentityTimeout:      appValues.Duration("identity_timeout", 10*time.Second),

		CacheTTL: appValues.Duration("cache_ttl", 5*time.Minute),

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// ClassDeck validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect, and rejects a half-configured OAuth2
// client for the identity provider.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IdentityClientID != "" || appCfg.IdentityClientSecret != "" {
		if appCfg.IdentityClientID == "" || appCfg.IdentityClientSecret == "" || appCfg.IdentityTokenURL == "" {
			return fmt.Errorf("identity OAuth2 requires identity_client_id, identity_client_secret, and identity_token_url together")
		}
	}

	if coreCfg.Env == "prod" && appCfg.IdentityBaseURL == "" {
		return fmt.Errorf("identity_base_url is required in prod; the in-memory provider is dev-only")
	}

	return nil
}
