package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/document"
	"github.com/yeeli/allinpay/pkg/gateway"
	"github.com/yeeli/allinpay/pkg/gwerr"
	"github.com/yeeli/allinpay/pkg/reliability"
	"github.com/yeeli/allinpay/pkg/request"
	"github.com/yeeli/allinpay/pkg/response"
	"github.com/yeeli/allinpay/pkg/security"
	"github.com/yeeli/allinpay/pkg/transport"
)

// Acknowledgement codes
const (
	AckOK      = response.RetCodeSuccess
	AckMessage = "接收成功"
)

// Notice is a verified inbound document.
type Notice struct {
	Serial  string
	TrxCode string
	Result  *response.Result
	// Raw holds the received bytes
	Raw []byte
	// Hash identifies the document for duplicate detection
	Hash       string
	ReceivedAt time.Time
}

// Receiver handles verified notices. A returned error makes the handler
// answer 500 so the gateway delivers the notice again.
type Receiver interface {
	Receive(ctx context.Context, n *Notice) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, n *Notice) error

// Receive implements Receiver.
func (f ReceiverFunc) Receive(ctx context.Context, n *Notice) error {
	return f(ctx, n)
}

// Config holds handler configuration
type Config struct {
	// Verifier checks gateway signatures. Required.
	Verifier *response.Verifier
	// Receiver gets every verified, non-duplicate notice. Required.
	Receiver Receiver
	// Signer signs acknowledgements. Nil sends them unsigned.
	Signer security.Signer
	Codec  *codec.Codec
	// Tracker provides duplicate detection when set
	Tracker *reliability.ExchangeTracker
	Journal gateway.Journal
	Logger  *slog.Logger
}

// Handler processes inbound gateway notices
type Handler struct {
	verifier *response.Verifier
	receiver Receiver
	signer   security.Signer
	codec    *codec.Codec
	tracker  *reliability.ExchangeTracker
	journal  gateway.Journal
	logger   *slog.Logger
	now      func() time.Time
}

var _ transport.Handler = (*Handler)(nil)

// NewHandler creates a new notice handler
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if cfg.Receiver == nil {
		return nil, fmt.Errorf("receiver is required")
	}
	h := &Handler{
		verifier: cfg.Verifier,
		receiver: cfg.Receiver,
		signer:   cfg.Signer,
		codec:    cfg.Codec,
		tracker:  cfg.Tracker,
		journal:  cfg.Journal,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if h.codec == nil {
		h.codec = codec.New()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// HandleDocument implements transport.Handler.
func (h *Handler) HandleDocument(ctx context.Context, body []byte) ([]byte, error) {
	rec := &gateway.ExchangeRecord{
		Direction: gateway.DirectionInbound,
		Request:   body,
		StartedAt: h.now(),
	}

	reply, err := h.handle(ctx, body, rec)
	rec.FinishedAt = h.now()
	if err != nil {
		rec.Error = err.Error()
		rec.StatusCode = http.StatusInternalServerError
		var se *gwerr.StatusError
		if errors.As(err, &se) {
			rec.StatusCode = se.StatusCode
		}
	}
	h.record(ctx, rec)
	return reply, err
}

func (h *Handler) handle(ctx context.Context, body []byte, rec *gateway.ExchangeRecord) ([]byte, error) {
	log := h.logger

	v, err := h.verifier.Check(ctx, body)
	if err != nil {
		rec.Outcome = gateway.OutcomeFailed
		if errors.Is(err, gwerr.ErrEncoding) {
			log.Warn("malformed notice", "bytes", len(body), "error", err)
			return nil, &gwerr.StatusError{StatusCode: http.StatusBadRequest, Body: []byte("malformed document")}
		}
		log.Error("notice verification failed", "error", err)
		return nil, err
	}
	if !v.Valid {
		rec.Outcome = gateway.OutcomeRejected
		log.Warn("notice signature rejected", "reason", v.Reason)
		return nil, &gwerr.StatusError{StatusCode: http.StatusForbidden, Body: []byte("signature verification failed")}
	}

	result := v.Result
	trxCode, _ := result.Value(document.TagInfo + "/" + document.TagTrxCode)
	notice := &Notice{
		Serial:     result.Serial(),
		TrxCode:    trxCode,
		Result:     result,
		Raw:        body,
		Hash:       reliability.ComputeDocumentHash(body),
		ReceivedAt: rec.StartedAt,
	}
	rec.Serial = notice.Serial
	rec.TrxCode = notice.TrxCode
	rec.SignatureValid = true
	rec.RetCode = result.RetCode()
	rec.ErrMsg = result.ErrMsg()
	log = log.With("serial", notice.Serial, "trx_code", notice.TrxCode)

	if h.tracker != nil && h.tracker.IsDuplicate(notice.Hash) {
		rec.Outcome = gateway.OutcomeVerified
		log.Info("duplicate notice acknowledged")
		return h.ack(ctx, notice, rec)
	}

	if err := h.receiver.Receive(ctx, notice); err != nil {
		rec.Outcome = gateway.OutcomeFailed
		log.Error("notice delivery failed", "error", err)
		return nil, fmt.Errorf("delivering notice %s: %w", notice.Serial, err)
	}
	if h.tracker != nil {
		h.tracker.MarkReceived(notice.Hash)
	}
	rec.Outcome = gateway.OutcomeVerified
	log.Info("notice received", "ret_code", rec.RetCode)

	return h.ack(ctx, notice, rec)
}

func (h *Handler) ack(ctx context.Context, n *Notice, rec *gateway.ExchangeRecord) ([]byte, error) {
	doc := document.New(document.TagRoot)
	doc.Section(document.TagInfo).
		Set(document.TagTrxCode, n.TrxCode).
		Set(document.TagReqSN, n.Serial).
		Set(document.TagRetCode, AckOK).
		Set(document.TagErrMsg, AckMessage)

	var (
		raw []byte
		err error
	)
	if h.signer != nil {
		raw, err = request.SignDocument(ctx, h.codec, h.signer, doc)
	} else {
		raw, err = h.codec.Encode(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding acknowledgement: %w", err)
	}
	rec.StatusCode = http.StatusOK
	rec.Response = raw
	return raw, nil
}

func (h *Handler) record(ctx context.Context, rec *gateway.ExchangeRecord) {
	if h.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := h.journal.RecordExchange(jctx, rec); err != nil {
		h.logger.Warn("failed to record notice", "serial", rec.Serial, "error", err)
	}
}
