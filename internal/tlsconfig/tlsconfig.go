package tlsconfig

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"

	"todo-web/internal/config"
	"todo-web/internal/logging"
)

var ErrDisabled = errors.New("TLS is not enabled")

// Config holds TLS/HTTPS configuration
type Config struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	Port         string // HTTPS listen port
	HTTPPort     string // Plain HTTP port serving the redirect
	RedirectHTTP bool   // Redirect HTTP to HTTPS
	MinVersion   uint16
	MaxVersion   uint16
}

// NewConfigFromEnv creates TLS config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Enabled:      config.GetEnvBool("TLS_ENABLED", false),
		CertFile:     config.GetEnv("TLS_CERT_FILE", "./certs/server.crt"),
		KeyFile:      config.GetEnv("TLS_KEY_FILE", "./certs/server.key"),
		Port:         config.GetEnv("TLS_PORT", "8443"),
		HTTPPort:     config.GetEnv("HTTP_PORT", "8080"),
		RedirectHTTP: config.GetEnvBool("TLS_REDIRECT_HTTP", true),
		MinVersion:   ParseVersion(config.GetEnv("TLS_MIN_VERSION", "1.2")),
		MaxVersion:   ParseVersion(config.GetEnv("TLS_MAX_VERSION", "1.3")),
	}
}

// cipherSuites applies to TLS 1.2 only; TLS 1.3 suites are not configurable
var cipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
}

// ServerConfig loads the key pair and builds the server's *tls.Config
func (c *Config) ServerConfig() (*tls.Config, error) {
	if !c.Enabled {
		return nil, ErrDisabled
	}
	if c.MinVersion > c.MaxVersion {
		return nil, fmt.Errorf("TLS min version %s is above max version %s",
			VersionString(c.MinVersion), VersionString(c.MaxVersion))
	}

	for _, path := range []string{c.CertFile, c.KeyFile} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("TLS file %s: %w", path, err)
		}
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	logging.Logger.Infof("TLS configured: cert=%s, minVersion=%s, maxVersion=%s",
		c.CertFile, VersionString(c.MinVersion), VersionString(c.MaxVersion))

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   c.MinVersion,
		MaxVersion:   c.MaxVersion,
		CipherSuites: cipherSuites,
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
			tls.CurveP384,
		},
	}, nil
}

// ParseVersion maps "1.2" or "1.3" to its protocol constant. Anything else,
// including the deprecated 1.0 and 1.1, falls back to TLS 1.2.
func ParseVersion(version string) uint16 {
	switch version {
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		logging.Logger.Warnf("Unsupported TLS version '%s', using TLS 1.2", version)
		return tls.VersionTLS12
	}
}

// VersionString converts a TLS version constant to a readable name
func VersionString(version uint16) string {
	switch version {
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return tls.VersionName(version)
	}
}
