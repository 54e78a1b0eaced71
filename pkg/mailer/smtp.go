package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/pkg/config"
)

// Attachment is a file delivered alongside the report body.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a composed report ready for delivery.
type Message struct {
	From       string
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// SMTPMailer delivers messages through a plain SMTP relay.
type SMTPMailer struct {
	host   string
	addr   string
	auth   smtp.Auth
	logger *zap.Logger
}

// NewSMTP builds a mailer from SMTP configuration. Auth is skipped when
// no username is configured (campus relays commonly allow-list senders).
func NewSMTP(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		host:   cfg.Host,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		logger: logger,
	}
}

// Deliver encodes and sends the message. The context is honoured up to
// the SMTP handshake; the transfer itself is not cancellable.
func (m *SMTPMailer) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mail delivery aborted: %w", err)
	}

	payload, err := encode(msg)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := smtp.SendMail(m.addr, m.auth, msg.From, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}

	m.logger.Sugar().Infow("report delivered",
		"to", msg.To,
		"subject", msg.Subject,
		"duration", time.Since(start),
	)
	return nil
}

func encode(msg Message) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	fmt.Fprintf(buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/plain; charset=utf-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("create body part: %w", err)
	}
	if _, err := bodyPart.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write body part: %w", err)
	}

	if msg.Attachment != nil {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", "text/csv; charset=utf-8")
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", msg.Attachment.Filename))
		attPart, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(msg.Attachment.Content)
		if _, err := attPart.Write([]byte(encoded)); err != nil {
			return nil, fmt.Errorf("write attachment part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close mime writer: %w", err)
	}
	return buf.Bytes(), nil
}
