package mailclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stevelaver/developer-portal-sub000/pkg/validator"
	"go.uber.org/multierr"
)

const defaultDialTimeout = 10 * time.Second

type SMTPConfig struct {
	Credential  Credential       `validate:"required"`
	DialTimeout time.Duration    `validate:"-"`
	Now         func() time.Time `validate:"-"`
}

// SMTPClient keep one lazily dialed connection and serialize every transaction on it.
type SMTPClient struct {
	config SMTPConfig

	mu   sync.Mutex
	conn *smtp.Client
}

var _ Client = (*SMTPClient)(nil)

// NewSMTP validate cfg only, the relay is dialed on the first Send.
func NewSMTP(cfg SMTPConfig) (*SMTPClient, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("smtp config: %w", err)
	}

	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &SMTPClient{config: cfg}, nil
}

func (c *SMTPClient) Send(ctx context.Context, emails []Email) (result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result.Deliveries = make([]Delivery, 0)
	for _, email := range emails {
		if err := validator.Validate(email); err != nil {
			for _, to := range email.To {
				result.Deliveries = append(result.Deliveries, Delivery{To: to, Err: fmt.Errorf("malformed email: %w", err)})
			}

			continue
		}

		// RCPT per address so every recipient gets its own outcome
		for _, to := range email.To {
			result.Deliveries = append(result.Deliveries, Delivery{To: to, Err: c.deliver(ctx, to, email)})
		}
	}

	return
}

// deliver run one mail transaction. The caller must hold c.mu.
func (c *SMTPClient) deliver(ctx context.Context, to string, email Email) error {
	conn, err := c.connection(ctx)
	if err != nil {
		return err
	}

	// abort whatever a previous failed transaction left behind
	if err = conn.Reset(); err != nil {
		return fmt.Errorf("RSET: %w", err)
	}

	if err = conn.Mail(email.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", email.From, err)
	}

	if err = conn.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}

	wc, err := conn.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}

	if _, err = wc.Write(composeMessage(to, email, c.config.Now())); err != nil {
		return multierr.Append(fmt.Errorf("write body: %w", err), wc.Close())
	}

	if err = wc.Close(); err != nil {
		return fmt.Errorf("end of data: %w", err)
	}

	return nil
}

// connection return the live connection, redialing once when NOOP says it is gone.
func (c *SMTPClient) connection(ctx context.Context) (*smtp.Client, error) {
	if c.conn != nil {
		if err := c.conn.Noop(); err == nil {
			return c.conn, nil
		}

		_ = c.conn.Close()
		c.conn = nil
	}

	conn, err := dial(ctx, c.config.Credential, c.config.DialTimeout)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	return conn, nil
}

// Close send QUIT, falling back to dropping the connection when the relay does not answer.
func (c *SMTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	conn := c.conn
	c.conn = nil

	quitErr := conn.Quit()
	if quitErr == nil {
		return nil
	}

	if err := conn.Close(); err != nil {
		return multierr.Append(fmt.Errorf("QUIT: %w", quitErr), fmt.Errorf("close: %w", err))
	}

	return nil
}

func dial(ctx context.Context, cred Credential, timeout time.Duration) (*smtp.Client, error) {
	addr := net.JoinHostPort(cred.Host, fmt.Sprint(cred.Port))

	dialer := net.Dialer{Timeout: timeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	conn, err := smtp.NewClient(raw, cred.Host)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("smtp handshake: %w", err), raw.Close())
	}

	if !cred.DisableStartTLS {
		if err = conn.StartTLS(&tls.Config{ServerName: cred.Host}); err != nil {
			return nil, multierr.Append(fmt.Errorf("STARTTLS: %w", err), conn.Close())
		}
	}

	if err = conn.Auth(sasl.NewPlainClient(cred.Identity, cred.Username, cred.Password)); err != nil {
		return nil, multierr.Append(fmt.Errorf("AUTH: %w", err), conn.Close())
	}

	return conn, nil
}

// composeMessage build a plain text RFC 5322 message addressed to a single recipient.
func composeMessage(to string, email Email, now time.Time) []byte {
	oneLine := strings.NewReplacer("\r", " ", "\n", " ")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", email.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", oneLine.Replace(email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	if email.TrackingID != "" {
		fmt.Fprintf(&buf, "X-Tracking-ID: %s\r\n", oneLine.Replace(email.TrackingID))
	}

	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(email.Body, "\r\n", "\n"), "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}
