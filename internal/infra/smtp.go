package infra

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"teranga/internal/config"

	"github.com/jordan-wright/email"
)

// LowStockLine is one ingredient listed in a low-stock alert.
type LowStockLine struct {
	Name      string
	Unit      string
	Quantity  string
	Threshold string
}

// Mailer wraps SMTP configuration. Every send goes through the breaker so a
// dead relay fails fast instead of tying up workers.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	cb       *CircuitBreaker
}

func NewMailer(cfg *config.Config, cb *CircuitBreaker) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       cb,
	}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool { return m.host != "" }

// SendLowStockAlert emails the list of ingredients at or below their reorder
// threshold.
func (m *Mailer) SendLowStockAlert(to string, lines []LowStockLine) error {
	if len(lines) == 0 {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Low stock: %d ingredient(s) need restocking", len(lines))
	e.Text = []byte(lowStockText(lines))
	e.HTML = []byte(lowStockHTML(lines))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.cb.Execute(func() error {
		return e.Send(m.addr, auth)
	})
}

func lowStockText(lines []LowStockLine) string {
	var b strings.Builder
	b.WriteString("The following ingredients are at or below their reorder threshold:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %s %s (threshold %s)\n", l.Name, l.Quantity, l.Unit, l.Threshold)
	}
	return b.String()
}

func lowStockHTML(lines []LowStockLine) string {
	var b strings.Builder
	b.WriteString("<p>The following ingredients are at or below their reorder threshold:</p><table>")
	b.WriteString("<tr><th>Ingredient</th><th>Quantity</th><th>Threshold</th></tr>")
	for _, l := range lines {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s %s</td><td>%s</td></tr>",
			html.EscapeString(l.Name), l.Quantity, html.EscapeString(l.Unit), l.Threshold)
	}
	b.WriteString("</table>")
	return b.String()
}
