// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, log
// level, CORS, timeouts). AppConfig is everything specific to ClassDeck:
// the MongoDB connection, session cookies, the identity-provider endpoint,
// and cache behavior. The struct is passed to most lifecycle hooks, so any
// configuration needed during startup, request handling, or shutdown lives
// here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Identity provider configuration. When IdentityBaseURL is blank the
	// in-memory provider is used, which only makes sense for dev and tests.
	IdentityBaseURL      string
	IdentityAPIKey       string        // static API key, used when no OAuth2 client is configured
	IdentityClientID     string        // OAuth2 client-credentials id
	IdentityClientSecret string        // OAuth2 client-credentials secret
	IdentityTokenURL     string        // OAuth2 token endpoint
	IdentityTimeout      time.Duration // per-call HTTP timeout

	// CacheTTL bounds how stale a cached list read may get.
	CacheTTL time.Duration

	// SuperAdminEmail, when set, is promoted (or created) as a super-admin
	// profile during startup.
	SuperAdminEmail string
}
