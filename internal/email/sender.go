package email

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"text/template"
)

type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	host string
	port string
	from string
	auth smtp.Auth // nil for local dev (MailHog)
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{
		host: getenv("SMTP_HOST", "localhost"),
		port: getenv("SMTP_PORT", "1025"),
		from: getenv("SMTP_FROM", "alerts@example.local"),
		// auth: add when using a real provider (smtp.PlainAuth("", user, pass, host))
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	msg := buildRFC822(s.from, to, subject, htmlBody)
	return smtp.SendMail(addr, s.auth, s.from, []string{to}, msg)
}

func buildRFC822(from, to, subject, html string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&buf, "\r\n%s\r\n", html)
	return buf.Bytes()
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

var transportFailureTpl = template.Must(template.New("transportFailure").Parse(`
<h2>Backend transport failure</h2>
<p>Action: <b>{{.Kind}}</b></p>
<p>Order: <b>{{.OrderID}}</b></p>
<p>Error: <code>{{.Error}}</code></p>
<p>The customer saw a generic apology; the request was not retried.</p>
`))

// RenderTransportFailureAlert produces the ops alert body for one
// TransportFailure diagnostics event.
func RenderTransportFailureAlert(kind, orderID, errText string) string {
	var buf bytes.Buffer
	_ = transportFailureTpl.Execute(&buf, map[string]any{
		"Kind":    kind,
		"OrderID": orderID,
		"Error":   errText,
	})
	return buf.String()
}

var actionFailedTpl = template.Must(template.New("actionFailed").Parse(`
<h2>Fulfillment action rejected</h2>
<p>Action: <b>{{.Kind}}</b></p>
<p>Order: <b>{{.OrderID}}</b></p>
<p>Backend said: {{.Message}}</p>
`))

// RenderActionFailedAlert covers repeated server-side rejections worth a
// human look.
func RenderActionFailedAlert(kind, orderID, message string) string {
	var buf bytes.Buffer
	_ = actionFailedTpl.Execute(&buf, map[string]any{
		"Kind":    kind,
		"OrderID": orderID,
		"Message": message,
	})
	return buf.String()
}

// Fallback logger sender (useful for dev without SMTP)
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody string) error {
	log.Printf("[Email] to=%s subject=%q body=%q", to, subject, htmlBody)
	return nil
}
