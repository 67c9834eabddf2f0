package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned when a message has no Bcc addresses.
var ErrNoRecipients = eris.New("message has no recipients")

// Message is an HTML email. Recipients are only ever sent as Bcc.
type Message struct {
	From    string
	Bcc     []string
	Subject string
	HTML    string
}

// SMTPConfig holds the server and credentials used by SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLSConfig overrides the TLS settings; nil verifies Host against the
	// system roots.
	TLSConfig *tls.Config
	Timeout   time.Duration
}

// SMTPSender delivers messages over implicit-TLS SMTP with PLAIN auth.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSMTPSender creates a new SMTPSender. A nil logger discards output.
func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPSender{cfg: cfg, logger: logger, now: time.Now}
}

// Send delivers msg to every Bcc address.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Bcc) == 0 {
		return ErrNoRecipients
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := s.cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	dialer := &tls.Dialer{Config: tlsConfig}
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "failed to connect to %s", addr)
	}
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return eris.Wrap(err, "failed to start SMTP session")
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
		return eris.Wrap(err, "SMTP authentication failed")
	}
	if err := client.Mail(msg.From); err != nil {
		return eris.Wrap(err, "SMTP MAIL FROM rejected")
	}
	for _, rcpt := range msg.Bcc {
		if err := client.Rcpt(rcpt); err != nil {
			return eris.Wrapf(err, "SMTP RCPT TO rejected for %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return eris.Wrap(err, "SMTP DATA rejected")
	}
	if _, err := w.Write(buildMessage(msg, s.now())); err != nil {
		return eris.Wrap(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "message not accepted")
	}

	s.logger.Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.Bcc)))
	return client.Quit()
}

// buildMessage formats msg as an RFC 5322 message. The Bcc list is left out
// of the headers.
func buildMessage(msg Message, now time.Time) []byte {
	var b bytes.Buffer
	domain := "localhost"
	if i := strings.LastIndex(msg.From, "@"); i >= 0 {
		domain = msg.From[i+1:]
	}

	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.HTML, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// SplitAddresses parses a comma-separated address list, dropping blanks.
func SplitAddresses(list string) []string {
	var out []string
	for addr := range strings.SplitSeq(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
