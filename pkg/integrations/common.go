package integrations

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"
)

// DefaultTimeout bounds every request made through [NewHTTPClient].
const DefaultTimeout = 30 * time.Second

// Options configures a [Client].
type Options struct {
	// Timeout for a whole request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Username and Password enable HTTP basic auth when Username is set.
	Username string
	Password string

	// CACert is a PEM file added to the system trust store.
	CACert string

	// NoProxy ignores HTTP(S)_PROXY environment variables.
	NoProxy bool

	// Headers are sent with every request.
	Headers map[string]string
}

// NewHTTPClient creates an HTTP client honoring the timeout, CA and proxy options.
func NewHTTPClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.NoProxy {
		transport.Proxy = nil
	}
	if opts.CACert != "" {
		pool, err := loadCertPool(opts.CACert)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
