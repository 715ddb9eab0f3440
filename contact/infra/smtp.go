package infra

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"contact-gateway/contact/domain"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

const (
	defaultSMTPPort    = 587
	implicitTLSPort    = 465
	defaultSMTPTimeout = 30 * time.Second
)

// SMTPProvider entrega via SMTP. A mensagem é montada pelo gomail; a sessão
// roda sobre uma conexão com deadline, então Send nunca passa do ctx nem do
// timeout do provedor. O Message-ID é gerado aqui e devolvido como id.
type SMTPProvider struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration

	send func(context.Context, *gomail.Message) error
}

type SMTPOption func(*SMTPProvider)

// WithSMTPTimeout limita a sessão inteira (dial até QUIT) quando o ctx não tem deadline menor.
func WithSMTPTimeout(d time.Duration) SMTPOption {
	return func(p *SMTPProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewSMTPProvider(host string, port int, username, password string, opts ...SMTPOption) (*SMTPProvider, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, domain.ErrMissingSMTPHost
	}
	if port <= 0 {
		port = defaultSMTPPort
	}
	p := &SMTPProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  defaultSMTPTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.send = p.deliver
	return p, nil
}

func (p *SMTPProvider) message(msg domain.Message) (*gomail.Message, string) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), p.host)

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)

	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	return m, id
}

// Send implementa domain.Provider.
func (p *SMTPProvider) Send(ctx context.Context, msg domain.Message) (string, error) {
	m, id := p.message(msg)

	if err := p.send(ctx, m); err != nil {
		if ctxErr := contextCause(ctx, err); ctxErr != nil {
			return "", fmt.Errorf("smtp send: %w (%v)", ctxErr, err)
		}
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

// contextCause devolve o erro do ctx quando foi ele que derrubou a sessão.
// O deadline da conexão pode disparar um instante antes do timer do ctx.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if dl, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}

func (p *SMTPProvider) deliver(ctx context.Context, m *gomail.Message) error {
	deadline := time.Now().Add(p.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	d := net.Dialer{Deadline: deadline}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(p.host, strconv.Itoa(p.port)))
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}
	// cancelamento do ctx destrava qualquer leitura/escrita pendente
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	tlsConfig := &tls.Config{ServerName: p.host}
	if p.port == implicitTLSPort {
		conn = tls.Client(conn, tlsConfig)
	}

	c, err := smtp.NewClient(conn, p.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if p.port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}
	if p.username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", p.username, p.password, p.host)); err != nil {
				return err
			}
		}
	}

	if err := gomail.Send(&smtpSender{c: c}, m); err != nil {
		return err
	}
	return c.Quit()
}

// smtpSender adapta *smtp.Client ao gomail.Sender.
type smtpSender struct {
	c *smtp.Client
}

func (s *smtpSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.c.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := s.c.Rcpt(addr); err != nil {
			return err
		}
	}

	w, err := s.c.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
