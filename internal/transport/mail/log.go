package mail

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/searchagent/internal/domain"
	"github.com/kailas-cloud/searchagent/internal/domain/listing"
	"github.com/kailas-cloud/searchagent/internal/domain/principal"
	"github.com/kailas-cloud/searchagent/internal/metrics"
)

// LogChannel renders notifications and writes them to the log instead of sending them.
type LogChannel struct {
	renderer *Renderer
	logger   *zap.Logger
}

// NewLog creates a log-only channel for local runs.
func NewLog(renderer *Renderer, logger *zap.Logger) *LogChannel {
	return &LogChannel{renderer: renderer, logger: logger}
}

// Send renders the notification and logs it.
func (c *LogChannel) Send(
	_ context.Context, p principal.Principal, locale language.Tag,
	section domain.Section, listings []listing.Listing,
) error {
	start := time.Now()
	msg, err := c.renderer.Render(p, locale, section, listings)
	if err != nil {
		metrics.MailSendDuration.WithLabelValues("log", "error").Observe(time.Since(start).Seconds())
		return err
	}
	metrics.MailSendDuration.WithLabelValues("log", "ok").Observe(time.Since(start).Seconds())

	c.logger.Info("Notification",
		zap.String("to", msg.To),
		zap.String("section", string(section)),
		zap.String("locale", msg.Locale.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// Check always succeeds.
func (c *LogChannel) Check(context.Context) error { return nil }
