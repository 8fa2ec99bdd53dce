package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yeeli/allinpay/pkg/gwerr"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// Content types
const (
	ContentTypeXML     = "text/xml"
	ContentTypeXMLWire = "text/xml; charset=GBK"
)

// DefaultMaxBodySize bounds response and request bodies read into memory.
const DefaultMaxBodySize = 4 << 20

// Recommended TLS 1.2 cipher suites
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// Response is the status and raw body of an exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport posts a document to a gateway URL.
type Transport interface {
	Post(ctx context.Context, url, contentType string, body []byte) (*Response, error)
}

// HTTPSConfig contains HTTPS client/server configuration
type HTTPSConfig struct {
	MinTLSVersion      uint16
	MaxTLSVersion      uint16
	CipherSuites       []uint16
	ClientAuth         tls.ClientAuthType
	Certificates       []tls.Certificate
	RootCAs            *x509.CertPool
	ClientCAs          *x509.CertPool
	InsecureSkipVerify bool
	Timeout            time.Duration
	IdleConnTimeout    time.Duration
	MaxBodySize        int64
	UserAgent          string
}

// DefaultHTTPSConfig returns a default HTTPS configuration
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		ClientAuth:      tls.NoClientCert,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		MaxBodySize:     DefaultMaxBodySize,
		UserAgent:       "allinpay-go/1.0",
	}
}

func (c *HTTPSConfig) maxBodySize() int64 {
	if c.MaxBodySize <= 0 {
		return DefaultMaxBodySize
	}
	return c.MaxBodySize
}

// HTTPSClient posts documents over HTTPS
type HTTPSClient struct {
	client *http.Client
	config *HTTPSConfig
}

var _ Transport = (*HTTPSClient)(nil)

// NewHTTPSClient creates a new HTTPS client
func NewHTTPSClient(config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}

	tlsConfig := &tls.Config{
		MinVersion:         config.MinTLSVersion,
		MaxVersion:         config.MaxTLSVersion,
		CipherSuites:       config.CipherSuites,
		Certificates:       config.Certificates,
		RootCAs:            config.RootCAs,
		InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // test gateway only
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     config.IdleConnTimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}

	return &HTTPSClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config: config,
	}
}

// NewHTTPSClientWith wraps an existing http.Client, e.g. one returned by
// httptest.Server.Client.
func NewHTTPSClientWith(client *http.Client, config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	return &HTTPSClient{client: client, config: config}
}

// Post sends body to url and returns the response whatever its status.
func (c *HTTPSClient) Post(ctx context.Context, url, contentType string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, gwerr.Transport("post", fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", contentType)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, gwerr.Transport("post", fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	limit := c.config.maxBodySize()
	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, gwerr.Transport("post", fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(responseBody)) > limit {
		return nil, gwerr.Transport("post", fmt.Errorf("response body exceeds %d bytes", limit))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       responseBody,
	}, nil
}

// Handler processes a document received by an HTTPSServer and returns the
// reply body. A returned *gwerr.StatusError sets the reply status.
type Handler interface {
	HandleDocument(ctx context.Context, body []byte) ([]byte, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, body []byte) ([]byte, error)

// HandleDocument calls f.
func (f HandlerFunc) HandleDocument(ctx context.Context, body []byte) ([]byte, error) {
	return f(ctx, body)
}

// HTTPSServer receives gateway documents over HTTPS
type HTTPSServer struct {
	server  *http.Server
	config  *HTTPSConfig
	handler Handler
	path    string
}

// NewHTTPSServer creates a new HTTPS server serving handler at path.
func NewHTTPSServer(addr, path string, config *HTTPSConfig, handler Handler) *HTTPSServer {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	if path == "" {
		path = "/"
	}

	tlsConfig := &tls.Config{
		MinVersion:   config.MinTLSVersion,
		MaxVersion:   config.MaxTLSVersion,
		CipherSuites: config.CipherSuites,
		Certificates: config.Certificates,
		ClientCAs:    config.ClientCAs,
		ClientAuth:   config.ClientAuth,
	}

	s := &HTTPSServer{
		config:  config,
		handler: handler,
		path:    path,
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		TLSConfig:    tlsConfig,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		IdleTimeout:  config.IdleConnTimeout,
	}

	return s
}

// Handler returns the HTTP handler, for mounting under another server or an
// httptest.Server.
func (s *HTTPSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleDocument)
	return mux
}

func (s *HTTPSServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.maxBodySize()+1))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.config.maxBodySize() {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	reply, err := s.handler.HandleDocument(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		var statusErr *gwerr.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
			if len(statusErr.Body) > 0 {
				w.Header().Set("Content-Type", ContentTypeXMLWire)
				w.WriteHeader(status)
				_, _ = w.Write(statusErr.Body)
				return
			}
		}
		http.Error(w, fmt.Sprintf("Failed to process document: %v", err), status)
		return
	}

	w.Header().Set("Content-Type", ContentTypeXMLWire)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

// Start starts the HTTPS server
func (s *HTTPSServer) Start() error {
	if len(s.config.Certificates) == 0 {
		return fmt.Errorf("no TLS certificates configured")
	}
	return s.server.ListenAndServeTLS("", "")
}

// Shutdown gracefully shuts down the server
func (s *HTTPSServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
