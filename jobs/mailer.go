package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer delivers queued emails over SMTP. Development points it at the
// local Mailpit instance; there is no auth because the relay is internal.
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger
	send   func(addr, from string, to []string, msg []byte) error
}

// NewMailer constructs a Mailer instance.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	return &Mailer{
		addr:   fmt.Sprintf("%s:%d", host, port),
		from:   from,
		logger: logger,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// HandleSendEmail processes TaskTypeSendEmail tasks. A malformed payload is
// dropped rather than retried; delivery failures are retried by the queue.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := m.send(m.addr, m.from, []string{payload.To}, buildMessage(m.from, payload)); err != nil {
		m.logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	m.logger.Info("sent email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func buildMessage(from string, p SendEmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", p.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", p.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(p.Body)
	return []byte(b.String())
}
