package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/metrics"
)

// TLS policies accepted by SMTPConfig.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// sender is the part of the go-mail client the channel needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// SMTPConfig holds SMTP transport settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	FromName  string
	TLSPolicy string
	Timeout   time.Duration
	// RatePerSec throttles outgoing mail; <= 0 disables throttling.
	RatePerSec float64
}

// SMTPChannel delivers notifications over SMTP. Safe for concurrent use.
type SMTPChannel struct {
	client   sender
	renderer *Renderer
	limiter  *rate.Limiter
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTP creates an SMTP notification channel.
func NewSMTP(cfg SMTPConfig, renderer *Renderer, logger *zap.Logger) (*SMTPChannel, error) {
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(policy),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return newSMTPChannel(client, cfg, renderer, logger), nil
}

func newSMTPChannel(client sender, cfg SMTPConfig, renderer *Renderer, logger *zap.Logger) *SMTPChannel {
	limit, burst := rate.Inf, 1
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = max(1, int(cfg.RatePerSec))
	}
	return &SMTPChannel{
		client:   client,
		renderer: renderer,
		limiter:  rate.NewLimiter(limit, burst),
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   logger,
	}
}

func tlsPolicy(name string) (gomail.TLSPolicy, error) {
	switch name {
	case "", TLSMandatory:
		return gomail.TLSMandatory, nil
	case TLSOpportunistic:
		return gomail.TLSOpportunistic, nil
	case TLSNone:
		return gomail.NoTLS, nil
	default:
		return gomail.TLSMandatory, fmt.Errorf("unknown tls policy %q", name)
	}
}

// Send renders and delivers one notification.
func (c *SMTPChannel) Send(
	ctx context.Context, p principal.Principal, locale language.Tag,
	section domain.Section, listings []listing.Listing,
) error {
	msg, err := c.renderer.Render(p, locale, section, listings)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limit: %w", err)
	}

	m, err := c.build(msg)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.client.DialAndSendWithContext(ctx, m)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.MailSendDuration.WithLabelValues("smtp", status).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	c.logger.Debug("Notification sent",
		zap.String("to", msg.To),
		zap.String("locale", msg.Locale.String()),
		zap.Int("listings", len(listings)),
	)
	return nil
}

func (c *SMTPChannel) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if c.fromName != "" {
		if err := m.FromFormat(c.fromName, c.from); err != nil {
			return nil, fmt.Errorf("set from: %w", err)
		}
	} else if err := m.From(c.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetGenHeader(gomail.HeaderContentLang, msg.Locale.String())
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}

// Check dials the SMTP server and closes the connection.
func (c *SMTPChannel) Check(ctx context.Context) error {
	if err := c.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	return c.client.Close()
}
