package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jaevor/go-nanoid"
	"github.com/serroba/contact-relay/internal/analytics"
	"github.com/serroba/contact-relay/internal/contact"
	"github.com/serroba/contact-relay/internal/mailer"
	"github.com/serroba/contact-relay/internal/metrics"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	referenceLength = 12
	sentMessage     = "Message sent successfully"
	malformedBody   = "Invalid request body"
)

// Auditor receives the outcome of every submission.
type Auditor interface {
	Relayed(ctx context.Context, event *analytics.ContactRelayedEvent)
	Rejected(ctx context.Context, event *analytics.ContactRejectedEvent)
}

// Refunder returns the admission slot held by the current request.
type Refunder interface {
	Refund(ctx context.Context) bool
}

type nopAuditor struct{}

func (nopAuditor) Relayed(context.Context, *analytics.ContactRelayedEvent)   {}
func (nopAuditor) Rejected(context.Context, *analytics.ContactRejectedEvent) {}

// ContactHandler validates submissions and relays them to the forward address.
type ContactHandler struct {
	mailer         mailer.Mailer
	forwardAddress string
	refunder       Refunder
	refundInvalid  bool
	auditor        Auditor
	metrics        *metrics.Metrics
	clock          ratelimit.Clock
	newReference   func() string
	logger         *zap.Logger
}

type ContactOption func(*ContactHandler)

// WithRefund returns the admission slot of submissions that fail validation
// when enabled is true.
func WithRefund(refunder Refunder, enabled bool) ContactOption {
	return func(h *ContactHandler) {
		h.refunder = refunder
		h.refundInvalid = enabled
	}
}

// WithAuditor sets where relay outcomes are reported.
func WithAuditor(a Auditor) ContactOption {
	return func(h *ContactHandler) { h.auditor = a }
}

// WithMetrics records relay outcomes on m.
func WithMetrics(m *metrics.Metrics) ContactOption {
	return func(h *ContactHandler) { h.metrics = m }
}

// WithClock overrides the clock used to timestamp events.
func WithClock(c ratelimit.Clock) ContactOption {
	return func(h *ContactHandler) { h.clock = c }
}

// WithReferenceGenerator overrides how message references are generated.
func WithReferenceGenerator(gen func() string) ContactOption {
	return func(h *ContactHandler) { h.newReference = gen }
}

// NewContactHandler creates a new contact handler relaying to forwardAddress.
func NewContactHandler(
	m mailer.Mailer,
	forwardAddress string,
	logger *zap.Logger,
	opts ...ContactOption,
) (*ContactHandler, error) {
	h := &ContactHandler{
		mailer:         m,
		forwardAddress: forwardAddress,
		auditor:        nopAuditor{},
		clock:          ratelimit.SystemClock,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.newReference == nil {
		gen, err := nanoid.Standard(referenceLength)
		if err != nil {
			return nil, fmt.Errorf("failed to create reference generator: %w", err)
		}

		h.newReference = gen
	}

	return h, nil
}

// Submit validates a contact form and relays it to the forward address.
func (h *ContactHandler) Submit(ctx context.Context, req *ContactRequest) (*ContactResponse, error) {
	clientKey := h.clientKey(ctx)

	form, err := contact.Decode(req.ContentType, req.RawBody)
	if err != nil {
		h.logger.Debug("undecodable submission", zap.String("client", clientKey), zap.Error(err))

		return h.invalid(ctx, clientKey, err.Error(), []string{malformedBody})
	}

	h.logger.Info("contact received",
		zap.String("name", form.Name),
		zap.String("country", form.Country),
		zap.String("email", form.Email),
	)

	if fieldErrs := form.Validate(); len(fieldErrs) > 0 {
		msgs := contact.Messages(fieldErrs)
		h.logger.Debug("invalid submission", zap.String("client", clientKey), zap.Strings("errors", msgs))

		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field)
		}

		return h.invalid(ctx, clientKey, strings.Join(fields, ","), msgs)
	}

	form.Sanitize()

	ref := h.newReference()
	msg := &mailer.Message{
		From:      form.Email,
		ReplyTo:   form.Email,
		To:        h.forwardAddress,
		Subject:   contact.Subject(form),
		Body:      contact.Body(form),
		Reference: ref,
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("relay failed", zap.String("reference", ref), zap.Error(err))
		h.metrics.ObserveRelay(metrics.RelayFailed)
		h.auditor.Rejected(ctx, analytics.NewContactRejectedEvent(
			analytics.ReasonDeliveryFailed, clientKey, err.Error(), h.clock.Now()))

		return textResponse(http.StatusInternalServerError, "Failed to send message: "+err.Error()), nil
	}

	h.logger.Info("message relayed", zap.String("reference", ref), zap.String("client", clientKey))
	h.metrics.ObserveRelay(metrics.RelaySent)

	event := analytics.NewContactRelayedEvent(ref, clientKey, h.clock.Now())
	event.Name = form.Name
	event.Country = form.Country
	event.Email = form.Email

	if form.Language != nil {
		event.Language = *form.Language
	}

	h.auditor.Relayed(ctx, event)

	resp := textResponse(http.StatusOK, sentMessage)
	resp.Reference = ref

	return resp, nil
}

func (h *ContactHandler) invalid(
	ctx context.Context,
	clientKey, detail string,
	msgs []string,
) (*ContactResponse, error) {
	if h.refundInvalid && h.refunder != nil && h.refunder.Refund(ctx) {
		h.logger.Debug("admission refunded", zap.String("client", clientKey))
	}

	h.metrics.ObserveRelay(metrics.RelayInvalid)
	h.auditor.Rejected(ctx, analytics.NewContactRejectedEvent(
		analytics.ReasonInvalid, clientKey, detail, h.clock.Now()))

	body, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}

	return &ContactResponse{
		Status:      http.StatusBadRequest,
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// clientKey prefers the key the gate admitted the request under.
func (h *ContactHandler) clientKey(ctx context.Context) string {
	if adm, ok := ratelimit.AdmissionFromContext(ctx); ok {
		return adm.Key
	}

	return RequestMetaFromContext(ctx).ClientIP
}

func textResponse(status int, text string) *ContactResponse {
	return &ContactResponse{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(text),
	}
}
