package yamdb

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPNotifier delivers messages over SMTP.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPNotifier returns a notifier for cfg.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n
}

// Send implements Notifier. Dial and delivery are bound to ctx.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before sending mail")
	default:
	}

	msg, err := n.message(recipient, subject, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid mail envelope").
			WithMetadata(map[string]any{"recipient": recipient})
	}

	if err := n.send(ctx, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp delivery failed").
			WithMetadata(map[string]any{"recipient": recipient})
	}

	return nil
}

func (n *SMTPNotifier) message(recipient, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(recipient); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}

func (n *SMTPNotifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogNotifier writes messages to a Logger instead of delivering them. It
// also keeps the last message per recipient, which tests and local setups
// read back.
type LogNotifier struct {
	logger Logger
	mu     sync.RWMutex
	last   map[string]string
}

// NewLogNotifier returns a notifier that logs every message.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger, last: map[string]string{}}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	n.last[recipient] = body
	n.mu.Unlock()

	n.logger.Info("mail", "to", recipient, "subject", subject, "body", body)
	return nil
}

// Last returns the last body sent to recipient.
func (n *LogNotifier) Last(recipient string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	body, ok := n.last[recipient]
	return body, ok
}
