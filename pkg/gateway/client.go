package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/gwerr"
	"github.com/yeeli/allinpay/pkg/reliability"
	"github.com/yeeli/allinpay/pkg/request"
	"github.com/yeeli/allinpay/pkg/response"
	"github.com/yeeli/allinpay/pkg/security"
	"github.com/yeeli/allinpay/pkg/transport"
)

// Config holds client construction settings. Only Credential (or Provider)
// is required.
type Config struct {
	// Environment selects the default URL and TLS verification
	Environment Environment

	// URL overrides the environment's gateway URL
	URL string

	// Credential locates the merchant key files. Ignored when Provider is set.
	Credential security.Credential

	// ProviderOptions are applied when the provider is built from Credential
	ProviderOptions []security.ProviderOption

	// Provider signs requests and verifies responses
	Provider security.Provider

	Codec     *codec.Codec
	Assembler *request.Assembler

	// Transport overrides the HTTPS client built from HTTPS
	Transport transport.Transport
	HTTPS     *transport.HTTPSConfig

	Tracker *reliability.ExchangeTracker
	Journal Journal
	Logger  *slog.Logger
}

// Client performs signed exchanges with one gateway endpoint. It is safe for
// concurrent use; exchanges share only read-only state.
type Client struct {
	env       Environment
	url       string
	provider  security.Provider
	codec     *codec.Codec
	assembler *request.Assembler
	verifier  *response.Verifier
	transport transport.Transport
	tracker   *reliability.ExchangeTracker
	journal   Journal
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a client. A missing or unreadable key file fails with
// gwerr.ErrConfiguration before any request is attempted.
func NewClient(cfg Config) (*Client, error) {
	env, err := ParseEnvironment(string(cfg.Environment))
	if err != nil {
		return nil, gwerr.Configuration("new client", err)
	}

	provider := cfg.Provider
	if provider == nil {
		p, err := security.NewKeyProvider(cfg.Credential, cfg.ProviderOptions...)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	url := cfg.URL
	if url == "" {
		url = env.URL()
	}

	c := &Client{
		env:       env,
		url:       url,
		provider:  provider,
		codec:     cfg.Codec,
		assembler: cfg.Assembler,
		transport: cfg.Transport,
		tracker:   cfg.Tracker,
		journal:   cfg.Journal,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if c.codec == nil {
		c.codec = codec.New()
	}
	if c.assembler == nil {
		c.assembler = request.NewAssembler()
	}
	if c.transport == nil {
		c.transport = transport.NewHTTPSClient(httpsConfig(env, cfg.HTTPS))
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.verifier = response.NewVerifier(provider, response.WithCodec(c.codec))

	c.logger.Debug("gateway client created",
		"environment", env.String(),
		"url", url,
		"credential", cfg.Credential,
	)
	return c, nil
}

func httpsConfig(env Environment, base *transport.HTTPSConfig) *transport.HTTPSConfig {
	cfg := transport.DefaultHTTPSConfig()
	if base != nil {
		copied := *base
		cfg = &copied
	}
	if !env.VerifiesTLS() {
		cfg.InsecureSkipVerify = true
	}
	return cfg
}

// URL returns the gateway URL requests are posted to.
func (c *Client) URL() string {
	return c.url
}

// Environment returns the configured environment.
func (c *Client) Environment() Environment {
	return c.env
}

// Assembler returns the request assembler.
func (c *Client) Assembler() *request.Assembler {
	return c.assembler
}

// Signer returns the merchant signer, for documents sent outside Send such
// as notice acknowledgements.
func (c *Client) Signer() security.Signer {
	return c.provider
}

// Codec returns the codec requests are encoded with.
func (c *Client) Codec() *codec.Codec {
	return c.codec
}

// Verifier returns a verifier using the client's gateway key, for checking
// inbound documents such as notifications.
func (c *Client) Verifier() *response.Verifier {
	return c.verifier
}

// Do assembles the business operation's request and sends it.
func (c *Client) Do(ctx context.Context, b request.Business) (*response.Result, error) {
	u, err := c.assembler.AssembleBusiness(b)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, u)
}

// DoPayload assembles p and sends it.
func (c *Client) DoPayload(ctx context.Context, p request.Payload) (*response.Result, error) {
	u, err := c.assembler.Assemble(p)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, u)
}

// Send signs u, posts it and verifies the response. The result is returned
// only when the response signature verifies.
func (c *Client) Send(ctx context.Context, u *request.Unsigned) (*response.Result, error) {
	if u == nil {
		return nil, fmt.Errorf("request is required")
	}

	log := c.logger.With("serial", u.Serial(), "trx_code", u.TrxCode())
	rec := &ExchangeRecord{
		Serial:    u.Serial(),
		TrxCode:   u.TrxCode(),
		Direction: DirectionOutbound,
		URL:       c.url,
		StartedAt: c.now(),
	}
	if c.tracker != nil {
		c.tracker.Track(u.Serial(), u.TrxCode())
	}

	result, err := c.exchange(ctx, u, rec, log)
	rec.FinishedAt = c.now()

	if err != nil {
		rec.Error = err.Error()
		if errors.Is(err, gwerr.ErrSignatureVerification) {
			rec.Outcome = OutcomeRejected
			c.trackerUpdate(log, func(t *reliability.ExchangeTracker) error { return t.RecordRejected(u.Serial(), err) })
		} else {
			rec.Outcome = OutcomeFailed
			c.trackerUpdate(log, func(t *reliability.ExchangeTracker) error { return t.RecordError(u.Serial(), err) })
		}
		log.Warn("exchange failed", "status", rec.StatusCode, "duration", rec.Duration(), "error", err)
	} else {
		rec.Outcome = OutcomeVerified
		c.trackerUpdate(log, func(t *reliability.ExchangeTracker) error { return t.RecordResult(u.Serial(), result.RetCode()) })
		log.Info("exchange completed", "ret_code", result.RetCode(), "duration", rec.Duration())
	}

	c.record(ctx, rec, log)
	return result, err
}

func (c *Client) exchange(ctx context.Context, u *request.Unsigned, rec *ExchangeRecord, log *slog.Logger) (*response.Result, error) {
	signed, err := u.Sign(ctx, c.codec, c.provider)
	if err != nil {
		return nil, err
	}
	body, err := signed.Encode()
	if err != nil {
		return nil, err
	}
	rec.Request = body
	log.Debug("request signed", "signed_bytes", len(signed.SigningInput()), "request_bytes", len(body))

	c.trackerUpdate(log, func(t *reliability.ExchangeTracker) error { return t.MarkSending(u.Serial()) })
	resp, err := c.transport.Post(ctx, c.url, transport.ContentTypeXML, body)
	if err != nil {
		if gwerr.KindOf(err) == nil {
			err = gwerr.Transport("post request", err)
		}
		return nil, err
	}
	rec.StatusCode = resp.StatusCode
	rec.Response = resp.Body
	log.Debug("response received", "status", resp.StatusCode, "response_bytes", len(resp.Body))

	if resp.StatusCode != http.StatusOK {
		return nil, gwerr.Transport("post request", &gwerr.StatusError{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		})
	}

	verification, err := c.verifier.Check(ctx, resp.Body)
	if err != nil {
		if gwerr.KindOf(err) == nil {
			err = gwerr.SignatureVerification("verify response", err)
		}
		return nil, err
	}
	if !verification.Valid {
		return nil, gwerr.SignatureVerification("verify response", errors.New(verification.Reason))
	}

	result := verification.Result
	rec.SignatureValid = true
	rec.RetCode = result.RetCode()
	rec.ErrMsg = result.ErrMsg()
	return result, nil
}

func (c *Client) trackerUpdate(log *slog.Logger, fn func(*reliability.ExchangeTracker) error) {
	if c.tracker == nil {
		return
	}
	if err := fn(c.tracker); err != nil {
		log.Warn("failed to update exchange tracker", "error", err)
	}
}

func (c *Client) record(ctx context.Context, rec *ExchangeRecord, log *slog.Logger) {
	if c.journal == nil {
		return
	}
	// The journal is written even when ctx was cancelled mid-exchange.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.journal.RecordExchange(jctx, rec); err != nil {
		log.Warn("failed to record exchange", "error", err)
	}
}
