package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Addresses são os endereços fixos usados em todos os envios.
type Addresses struct {
	From    string
	To      string // caixa de operações que recebe a notificação
	AdminCc string
}

type Options struct {
	Limiter  domain.WindowLimiter // nil = sem rate limit
	Breaker  domain.Breaker
	Provider domain.Provider // obrigatório fora do modo de teste
	Renderer domain.Renderer
	Stats    domain.StatsStore

	Addresses Addresses
	TestMode  bool
	// SendTimeout limita cada chamada ao provedor. 0 = só o ctx do chamador.
	SendTimeout time.Duration

	Logger zerolog.Logger
	Clock  func() time.Time
}

// Gateway orquestra rate limit, circuit breaker e o envio dos dois e-mails.
type Gateway struct {
	limiter  domain.WindowLimiter
	breaker  domain.Breaker
	provider domain.Provider
	renderer domain.Renderer
	stats    domain.StatsStore

	addr        Addresses
	testMode    bool
	sendTimeout time.Duration

	log zerolog.Logger
	now func() time.Time
}

func NewGateway(opts Options) (*Gateway, error) {
	if opts.Breaker == nil {
		return nil, fmt.Errorf("%w: circuit breaker is required", domain.ErrInvalidConfig)
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("%w: email renderer is required", domain.ErrInvalidConfig)
	}
	if opts.Addresses.From == "" || opts.Addresses.To == "" {
		return nil, fmt.Errorf("%w: sender and recipient addresses are required", domain.ErrInvalidConfig)
	}
	if opts.Provider == nil && !opts.TestMode {
		return nil, domain.ErrMissingProvider
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Gateway{
		limiter:     opts.Limiter,
		breaker:     opts.Breaker,
		provider:    opts.Provider,
		renderer:    opts.Renderer,
		stats:       opts.Stats,
		addr:        opts.Addresses,
		testMode:    opts.TestMode,
		sendTimeout: opts.SendTimeout,
		log:         opts.Logger.With().Str("component", "contact_gateway").Logger(),
		now:         opts.Clock,
	}, nil
}

func (g *Gateway) TestMode() bool { return g.testMode }

func (g *Gateway) BreakerState() domain.BreakerState { return g.breaker.State() }

// SendContactEmail nunca retorna erro: toda falha esperada vira Result.
//
// Ordem: rate limit (só com IP) -> circuit breaker -> modo de teste -> provedor.
func (g *Gateway) SendContactEmail(ctx context.Context, sub domain.Submission) domain.Result {
	if sub.ReferenceID == "" {
		sub.ReferenceID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = g.now()
	}

	log := g.log.With().
		Str("reference_id", sub.ReferenceID).
		Str("ip", sub.IPAddress).
		Logger()

	res := g.send(ctx, sub, log)
	g.record(ctx, sub, res, log)
	return res
}

func (g *Gateway) send(ctx context.Context, sub domain.Submission, log zerolog.Logger) domain.Result {
	var window *domain.WindowDecision

	if sub.IPAddress != "" && g.limiter != nil {
		dec, err := g.limiter.Take(ctx, domain.Key(sub.IPAddress))
		switch {
		case err != nil:
			// backend fora: segue sem rate limit
			log.Warn().Err(err).Msg("rate limit check failed, allowing submission")
		case !dec.Allowed:
			log.Warn().
				Int("count", dec.Count).
				Int("limit", dec.Limit).
				Time("reset_at", dec.ResetAt).
				Msg("contact submission rate limited")
			return domain.Result{
				Message:     domain.MsgRateLimited,
				RateLimited: true,
				RetryAfter:  retryAfter(dec.ResetAt, g.now()),
				Window:      &dec,
			}
		default:
			window = &dec
		}
	}

	if !g.breaker.Allow() {
		log.Warn().Msg("circuit breaker open, contact emails not attempted")
		return domain.Result{
			Message:            domain.MsgCircuitOpen,
			CircuitBreakerOpen: true,
			Window:             window,
		}
	}

	if g.testMode {
		log.Info().
			Str("from", g.addr.From).
			Str("to", sub.Email).
			Str("notify", g.addr.To).
			Str("cc", g.addr.AdminCc).
			Str("first_name", sub.FirstName).
			Str("last_name", sub.LastName).
			Str("company", sub.Company).
			Str("body", sub.Message).
			Str("user_agent", sub.UserAgent).
			Msg("test mode: contact emails not sent")
		g.breaker.RecordSuccess()
		return domain.Result{Success: true, Message: domain.MsgSentTest, Window: window}
	}

	confirmation, notification, err := g.compose(sub)
	if err != nil {
		log.Error().Err(err).Msg("failed to render contact emails")
		return domain.Result{Message: domain.MsgFailed, Window: window}
	}

	confirmationID, err := g.deliver(ctx, confirmation)
	if err == nil {
		var notificationID string
		notificationID, err = g.deliver(ctx, notification)
		if err == nil {
			g.breaker.RecordSuccess()
			log.Info().
				Str("confirmation_id", confirmationID).
				Str("notification_id", notificationID).
				Msg("contact emails sent")
			return domain.Result{Success: true, Message: domain.MsgSent, Window: window}
		}
	}

	g.breaker.RecordFailure()
	st := g.breaker.State()
	log.Error().
		Err(err).
		Int("breaker_failures", st.Failures).
		Bool("breaker_open", st.Open).
		Msg("failed to send contact emails")
	return domain.Result{Message: domain.MsgFailed, Window: window}
}

// compose monta a confirmação (para quem enviou) e a notificação (operações + cc admin).
func (g *Gateway) compose(sub domain.Submission) (domain.Message, domain.Message, error) {
	c, err := g.renderer.Confirmation(sub)
	if err != nil {
		return domain.Message{}, domain.Message{}, err
	}
	n, err := g.renderer.AdminNotification(sub)
	if err != nil {
		return domain.Message{}, domain.Message{}, err
	}

	confirmation := domain.Message{
		From:    g.addr.From,
		To:      []string{sub.Email},
		ReplyTo: g.addr.To,
		Subject: c.Subject,
		HTML:    c.HTML,
		Text:    c.Text,
	}

	notification := domain.Message{
		From:    g.addr.From,
		To:      []string{g.addr.To},
		ReplyTo: sub.Email,
		Subject: n.Subject,
		HTML:    n.HTML,
		Text:    n.Text,
	}
	if g.addr.AdminCc != "" && g.addr.AdminCc != g.addr.To {
		notification.Cc = []string{g.addr.AdminCc}
	}

	return confirmation, notification, nil
}

func (g *Gateway) deliver(ctx context.Context, msg domain.Message) (string, error) {
	if g.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.sendTimeout)
		defer cancel()
	}

	id, err := g.provider.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("send %q: provider timed out: %w", msg.Subject, err)
		}
		return "", fmt.Errorf("send %q: %w", msg.Subject, err)
	}
	return id, nil
}

func (g *Gateway) record(ctx context.Context, sub domain.Submission, res domain.Result, log zerolog.Logger) {
	if g.stats == nil {
		return
	}
	ev := domain.StatsEvent{
		Key:     domain.Key(sub.IPAddress),
		Outcome: res.Outcome(),
		At:      g.now(),
	}
	if err := g.stats.Record(ctx, ev); err != nil {
		log.Debug().Err(err).Msg("stats record failed")
	}
}

// retryAfter arredonda para cima em segundos, mínimo 1s.
func retryAfter(resetAt, now time.Time) time.Duration {
	d := resetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}
