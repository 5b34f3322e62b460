package notifier

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// Ensure EmailNotifier implements model.Notifier.
var _ model.Notifier = (*EmailNotifier)(nil)

// EmailNotifier delivers alerts over authenticated SMTP. Each Notify call
// opens one submission session per message and closes it before returning;
// sends are fire-and-forget from the poll loop's point of view.
type EmailNotifier struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
	logger     *slog.Logger

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier returns a notifier that mails each listing to the
// configured recipients.
func NewEmailNotifier(host string, port int, sender, password string, recipients []string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:       host,
		port:       port,
		sender:     sender,
		password:   password,
		recipients: recipients,
		logger:     logger,
		sendMail:   smtp.SendMail,
	}
}

// Notify sends one email per listing. Returns an error only if every send
// failed; individual failures are logged and the rest still go out.
func (n *EmailNotifier) Notify(listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	failures := 0
	for _, l := range listings {
		if err := n.send(buildSubject(l), buildBody(l)); err != nil {
			n.logger.Error("email notification failed", "listing", l.ID, "title", l.Title, "error", err)
			failures++
			continue
		}
		n.logger.Info("email sent", "listing", l.ID, "title", l.Title, "recipients", len(n.recipients))
	}

	if failures == len(listings) {
		return fmt.Errorf("all %d email notifications failed", failures)
	}
	return nil
}

// Alert sends a single free-form operator message (error reports, test runs).
func (n *EmailNotifier) Alert(subject, body string) error {
	if err := n.send(subject, body); err != nil {
		return fmt.Errorf("sending alert %q: %w", subject, err)
	}
	n.logger.Info("alert sent", "subject", subject)
	return nil
}

func (n *EmailNotifier) send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	auth := smtp.PlainAuth("", n.sender, n.password, n.host)
	msg := buildMessage(n.sender, n.recipients, subject, body)
	return n.sendMail(addr, auth, n.sender, n.recipients, msg)
}

// buildMessage assembles RFC 5322 headers plus the plain-text body.
func buildMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func buildSubject(l model.Listing) string {
	return fmt.Sprintf("New warehouse job: %s @ %s", l.Title, l.Location)
}

func buildBody(l model.Listing) string {
	lines := []string{
		"-------------------------------",
		"Job:      " + l.Title,
		"Location: " + l.Location,
		"Pay:      " + l.Pay,
		"Shift:    " + l.Shift,
		"Link:     " + l.Link,
		"Found:    " + l.DiscoveredAt.Format(time.RFC1123),
		"-------------------------------",
	}
	return strings.Join(lines, "\n")
}

// SendTestMessage sends a dummy listing through the notifier to verify the
// transport end to end.
func SendTestMessage(n model.Notifier) error {
	return n.Notify([]model.Listing{{
		ID:           "TEST-001",
		Title:        "Warehouse Associate (test)",
		Location:     "Cambridge, ON",
		Pay:          "$20.00/hr",
		Shift:        "Any",
		Link:         "https://hiring.example.ca/jobs/TEST-001",
		DiscoveredAt: time.Now(),
	}})
}
