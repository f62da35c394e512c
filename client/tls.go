package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/otherjamesbrown/minuteme-cli/config"
)

// LoadClientTLSConfig builds a tls.Config from the TLS settings.
// Returns nil when nothing is configured and insecure is false.
func LoadClientTLSConfig(cfg *config.TLSConfig, insecure bool) (*tls.Config, error) {
	if !cfg.IsConfigured() && !insecure {
		return nil, nil
	}

	cfg.ResolvePaths()

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.SkipVerify || insecure,
	}

	if cfg.ClientCert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CACert != "" && !tlsConfig.InsecureSkipVerify {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA cert: invalid PEM")
		}
		tlsConfig.RootCAs = caPool
	}

	return tlsConfig, nil
}

// NewHTTPClient returns an http.Client whose transport honours the TLS settings.
func NewHTTPClient(cfg *config.TLSConfig, insecure bool) (*http.Client, error) {
	tlsConfig, err := LoadClientTLSConfig(cfg, insecure)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	return &http.Client{Transport: transport}, nil
}

// CheckCertsExist verifies the configured certificate files are present.
func CheckCertsExist(cfg *config.TLSConfig) error {
	cfg.ResolvePaths()

	files := []struct{ name, path string }{
		{"CA certificate", cfg.CACert},
		{"Client certificate", cfg.ClientCert},
		{"Client key", cfg.ClientKey},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			return fmt.Errorf("%s not found: %s", f.name, f.path)
		}
	}
	return nil
}
