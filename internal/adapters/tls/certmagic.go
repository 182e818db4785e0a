// Package tls provides the HTTP listener with optional automatic TLS using
// CertMagic.
package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/libdns/azure"
)

// Config holds TLS configuration.
type Config struct {
	Enabled  bool
	Domains  []string
	Email    string
	CacheDir string
	Staging  bool // Use Let's Encrypt staging environment
	DNS      DNSConfig
}

// DNSConfig holds Azure DNS provider configuration for DNS-01 challenges.
// Without a subscription ID the HTTP-01 and TLS-ALPN challenges are used.
type DNSConfig struct {
	SubscriptionID    string
	ResourceGroupName string
	ClientID          string // User Assigned Managed Identity client ID (optional)
}

// Timeouts of the HTTP listener.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Server wraps an HTTP server with automatic TLS.
type Server struct {
	config    Config
	handler   http.Handler
	logger    *slog.Logger
	tlsConfig *tls.Config
	timeouts  Timeouts

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates the listener. TLS settings are validated only when TLS
// is enabled.
func NewServer(cfg Config, handler http.Handler, timeouts Timeouts, logger *slog.Logger) (*Server, error) {
	s := &Server{
		config:   cfg,
		handler:  handler,
		logger:   logger,
		timeouts: timeouts,
	}
	if !cfg.Enabled {
		return s, nil
	}

	if len(cfg.Domains) == 0 {
		return nil, errors.New("TLS enabled but no domains specified")
	}

	if cfg.Email == "" {
		return nil, errors.New("TLS enabled but no email specified")
	}

	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = cfg.Email

	if cfg.Staging {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}

	if cfg.CacheDir != "" {
		certmagic.Default.Storage = &certmagic.FileStorage{Path: cfg.CacheDir}
	}

	if cfg.DNS.SubscriptionID != "" {
		provider := &azure.Provider{
			SubscriptionId:    cfg.DNS.SubscriptionID,
			ResourceGroupName: cfg.DNS.ResourceGroupName,
			ClientId:          cfg.DNS.ClientID, // Empty = System Assigned Managed Identity
		}
		certmagic.DefaultACME.DNS01Solver = &certmagic.DNS01Solver{
			DNSManager: certmagic.DNSManager{
				DNSProvider: provider,
			},
		}
	}

	tlsConfig, err := certmagic.TLS(cfg.Domains)
	if err != nil {
		return nil, fmt.Errorf("configuring TLS: %w", err)
	}
	s.tlsConfig = tlsConfig

	return s, nil
}

// Challenge returns the ACME challenge used for certificates, empty when
// TLS is disabled.
func (s *Server) Challenge() string {
	switch {
	case !s.config.Enabled:
		return ""
	case s.config.DNS.SubscriptionID != "":
		return "dns-01"
	default:
		return "http-01"
	}
}

// ListenAndServe starts the server with TLS if enabled. It returns nil
// after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		TLSConfig:         s.tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
	}
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	var err error
	if !s.config.Enabled {
		s.logger.Info("starting HTTP server (TLS disabled)", "address", addr)
		err = server.ListenAndServe()
	} else {
		s.logger.Info("starting HTTPS server",
			"address", addr,
			"domains", s.config.Domains,
			"challenge", s.Challenge(),
		)
		err = server.ListenAndServeTLS("", "")
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// TLSConfig returns the TLS configuration.
func (s *Server) TLSConfig() *tls.Config {
	return s.tlsConfig
}

// ManageCertificates pre-obtains certificates for the configured domains.
func (s *Server) ManageCertificates(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.logger.Info("obtaining certificates", "domains", s.config.Domains)

	if err := certmagic.ManageSync(ctx, s.config.Domains); err != nil {
		return fmt.Errorf("managing certificates: %w", err)
	}

	s.logger.Info("certificates obtained successfully")
	return nil
}
