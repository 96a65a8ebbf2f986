package notify

import (
	"context"
	"crypto/tls"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender mails events as plain UTF-8 text. Port 465 uses implicit TLS,
// any other port goes through smtp.SendMail and its STARTTLS upgrade.
type EmailSender struct {
	host     string
	port     int
	user     string
	password string
	to       string
	send     sendMailFunc
}

func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	s := &EmailSender{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		to:       cfg.To,
	}
	s.send = smtp.SendMail
	if cfg.Port == 465 {
		s.send = s.sendImplicitTLS
	}
	return s
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, e Event) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	msg := buildMessage(s.user, s.to, e)

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.user, []string{s.to}, msg)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EmailSender) sendImplicitTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if err = c.Auth(a); err != nil {
		return err
	}
	if err = c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err = c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to string, e Event) []byte {
	var body strings.Builder
	for _, f := range e.Fields {
		body.WriteString(f.Label + ": " + f.Value + "\r\n")
	}
	body.WriteString("\r\n" + e.OccurredAt.In(moscow).Format("02.01.2006 15:04") + " МСК\r\n")

	var sb strings.Builder
	sb.WriteString("From: " + mime.QEncoding.Encode("utf-8", "DONGFENG Сайт") + " <" + from + ">\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", e.Title) + "\r\n")
	sb.WriteString("Date: " + e.OccurredAt.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body.String())
	return []byte(sb.String())
}
