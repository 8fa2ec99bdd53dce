package gatewaytest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/gwerr"
	"github.com/yeeli/allinpay/pkg/request"
	"github.com/yeeli/allinpay/pkg/response"
	"github.com/yeeli/allinpay/pkg/security"
	"github.com/yeeli/allinpay/pkg/transport"
)

// Path is where the fake gateway accepts requests.
const Path = "/aipg/ProcessServlet"

// Reply codes written by the fake gateway
const (
	RetCodeOK           = response.RetCodeSuccess
	RetCodeBadSignature = "0001"
	MsgOK               = "处理完成"
	MsgBadSignature     = "验签失败"
)

// Tamper selects how a signed reply is corrupted after signing
type Tamper int

const (
	TamperNone      Tamper = iota
	TamperSignature        // flip a digit of INFO/SIGNED_MSG
	TamperContent          // change INFO/ERR_MSG after signing
)

// Config configures a Server
type Config struct {
	// MerchantVerifier checks request signatures. Nil accepts any request.
	MerchantVerifier security.Verifier

	// GatewaySigner signs replies
	GatewaySigner security.Signer

	// Codec encodes replies; defaults to compact
	Codec *codec.Codec
}

// Server is a fake gateway listening on a local TLS port
type Server struct {
	URL string

	srv      *httptest.Server
	verifier *response.Verifier
	signer   security.Signer
	codec    *codec.Codec

	mu       sync.Mutex
	status   int
	tamper   Tamper
	requests [][]byte
}

// NewServer starts a fake gateway. Call Close when done.
func NewServer(cfg Config) *Server {
	s := &Server{
		signer: cfg.GatewaySigner,
		codec:  cfg.Codec,
		status: http.StatusOK,
	}
	if s.codec == nil {
		s.codec = codec.New()
	}
	if cfg.MerchantVerifier != nil {
		s.verifier = response.NewVerifier(cfg.MerchantVerifier)
	}

	handler := transport.NewHTTPSServer("", Path, nil, transport.HandlerFunc(s.handle))
	s.srv = httptest.NewTLSServer(handler.Handler())
	s.URL = s.srv.URL + Path
	return s
}

// Client returns an HTTP client that trusts the server's certificate.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Transport returns a gateway transport that trusts the server.
func (s *Server) Transport() transport.Transport {
	return transport.NewHTTPSClientWith(s.srv.Client(), nil)
}

// Close shuts the server down
func (s *Server) Close() {
	s.srv.Close()
}

// SetStatus makes the server answer every request with status and a plain
// text body. http.StatusOK restores normal operation.
func (s *Server) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetTamper selects how replies are corrupted.
func (s *Server) SetTamper(t Tamper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tamper = t
}

// Requests returns copies of the raw request bodies received so far.
func (s *Server) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.requests))
	for i, r := range s.requests {
		out[i] = bytes.Clone(r)
	}
	return out
}

func (s *Server) handle(ctx context.Context, body []byte) ([]byte, error) {
	s.mu.Lock()
	s.requests = append(s.requests, bytes.Clone(body))
	status, tamper := s.status, s.tamper
	s.mu.Unlock()

	if status != http.StatusOK {
		return nil, &gwerr.StatusError{StatusCode: status, Body: []byte(http.StatusText(status))}
	}

	doc, err := s.codec.Decode(body)
	if err != nil {
		return nil, &gwerr.StatusError{StatusCode: http.StatusBadRequest, Body: []byte(err.Error())}
	}

	retCode, msg := RetCodeOK, MsgOK
	if s.verifier != nil {
		ok, err := s.verifier.Verify(ctx, body, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			retCode, msg = RetCodeBadSignature, MsgBadSignature
		}
	}

	reply := doc.Clone()
	info := reply.Section(document.TagInfo)
	info.Remove(document.TagSignature)
	info.Set(document.TagRetCode, retCode)
	info.Set(document.TagErrMsg, msg)

	raw, err := Sign(ctx, s.signer, s.codec, reply)
	if err != nil {
		return nil, err
	}
	return corrupt(raw, tamper), nil
}

// Sign encodes doc carrying a signature over its signing input, the way
// the gateway signs replies. Any signature already in doc is replaced.
func Sign(ctx context.Context, signer security.Signer, c *codec.Codec, doc *document.Node) ([]byte, error) {
	return request.SignDocument(ctx, c, signer, doc)
}

func corrupt(raw []byte, t Tamper) []byte {
	switch t {
	case TamperSignature:
		open := []byte("<" + document.TagSignature + ">")
		i := bytes.Index(raw, open)
		if i < 0 {
			return raw
		}
		out := bytes.Clone(raw)
		j := i + len(open)
		if out[j] == '0' {
			out[j] = '1'
		} else {
			out[j] = '0'
		}
		return out
	case TamperContent:
		ok, err := codec.ToWire([]byte(MsgOK))
		if err != nil {
			return raw
		}
		bad, err := codec.ToWire([]byte(MsgBadSignature))
		if err != nil {
			return raw
		}
		return bytes.Replace(raw, ok, bad, 1)
	default:
		return raw
	}
}
