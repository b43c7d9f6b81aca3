package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"sort"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Mailer handles sending emails
type Mailer struct {
	config Config
	tmpl   *template.Template
	sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new Mailer instance
func New(cfg Config) *Mailer {
	return &Mailer{
		config: cfg,
		tmpl:   template.Must(template.New("purchase").Parse(purchaseTemplate)),
		sendFn: smtp.SendMail,
	}
}

// PurchaseConfirmation is the data rendered into the confirmation email
type PurchaseConfirmation struct {
	Name    string
	Phone   string
	OrderID string
}

// SendPurchaseConfirmation tells a buyer their license is ready and which
// phone number activates it
func (m *Mailer) SendPurchaseConfirmation(toEmail string, data PurchaseConfirmation) error {
	subject := "Niyyah - Your activation is ready"

	body, err := m.render(data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return m.send(toEmail, subject, body)
}

func (m *Mailer) render(data PurchaseConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// send delivers an email via SMTP
func (m *Mailer) send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"utf-8\"",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msg bytes.Buffer
	for _, k := range keys {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, headers[k]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := m.sendFn(addr, auth, m.config.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const purchaseTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#0b1f17;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;">
    <div style="max-width:500px;margin:40px auto;background:#10291f;border-radius:16px;overflow:hidden;border:1px solid rgba(212,175,55,0.25);">
        <!-- Header -->
        <div style="background:linear-gradient(135deg,#14532d 0%,#166534 100%);padding:32px;text-align:center;">
            <h1 style="color:#fff;margin:0;font-size:28px;font-weight:700;">🌙 Niyyah</h1>
            <p style="color:rgba(255,255,255,0.85);margin:8px 0 0;font-size:14px;">Thank you for your purchase</p>
        </div>

        <!-- Body -->
        <div style="padding:32px;">
            <p style="color:#e2e8f0;font-size:16px;line-height:1.6;margin:0 0 24px;">
                Assalamu alaikum <strong style="color:#d4af37;">{{.Name}}</strong>,
            </p>
            <p style="color:#94a3b8;font-size:14px;line-height:1.6;margin:0 0 24px;">
                Your access is ready. Open the app and activate it with this phone number:
            </p>

            <!-- Phone -->
            <div style="background:rgba(212,175,55,0.08);border:2px dashed rgba(212,175,55,0.4);border-radius:12px;padding:24px;text-align:center;margin:0 0 24px;">
                <span style="font-size:26px;font-weight:800;letter-spacing:2px;color:#d4af37;font-family:'Courier New',monospace;">{{.Phone}}</span>
            </div>

            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0 0 8px;">
                The first device you activate becomes your device. Order reference: <strong>{{.OrderID}}</strong>.
            </p>
        </div>

        <!-- Footer -->
        <div style="padding:16px 32px;border-top:1px solid rgba(212,175,55,0.1);text-align:center;">
            <p style="color:#475569;font-size:12px;margin:0;">© 2026 Niyyah. All rights reserved.</p>
        </div>
    </div>
</body>
</html>`
