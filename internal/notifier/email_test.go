package notifier

import (
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

// fakeSender captures sends; fails the first n attempts if failFirst is set.
type fakeSender struct {
	sent      []sentMail
	failFirst int
}

func (f *fakeSender) send(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, sentMail{addr: addr, from: from, to: to, msg: msg})
	return nil
}

func newTestNotifier(f *fakeSender, recipients ...string) *EmailNotifier {
	n := NewEmailNotifier("smtp.example.com", 587, "bot@example.com", "hunter2", recipients, discardLogger())
	n.sendMail = f.send
	return n
}

func sampleListing() model.Listing {
	return model.Listing{
		ID:           "JOB-1",
		Title:        "Warehouse Picker",
		Location:     "Cambridge, ON",
		Pay:          "$20.50/hr",
		Shift:        "Night shift",
		Link:         "https://hiring.example.ca/jobs/JOB-1",
		DiscoveredAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestNotify_SendsOneMailPerListing(t *testing.T) {
	f := &fakeSender{}
	n := newTestNotifier(f, "a@example.com", "b@example.com")

	listings := []model.Listing{sampleListing(), {ID: "JOB-2", Title: "Packer", Location: "Hamilton, ON"}}
	if err := n.Notify(listings); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(f.sent) != 2 {
		t.Fatalf("sent %d mails, want 2", len(f.sent))
	}
	m := f.sent[0]
	if m.addr != "smtp.example.com:587" {
		t.Errorf("addr = %q", m.addr)
	}
	if m.from != "bot@example.com" {
		t.Errorf("from = %q", m.from)
	}
	if len(m.to) != 2 || m.to[1] != "b@example.com" {
		t.Errorf("to = %v", m.to)
	}

	body := string(m.msg)
	if !strings.Contains(body, "Subject: New warehouse job: Warehouse Picker @ Cambridge, ON\r\n") {
		t.Errorf("missing subject header in:\n%s", body)
	}
	if !strings.Contains(body, "To: a@example.com, b@example.com\r\n") {
		t.Errorf("missing recipient header in:\n%s", body)
	}
	for _, want := range []string{"Job:      Warehouse Picker", "Pay:      $20.50/hr", "Link:     https://hiring.example.ca/jobs/JOB-1"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q in:\n%s", want, body)
		}
	}
}

func TestNotify_EmptyIsNoop(t *testing.T) {
	f := &fakeSender{}
	n := newTestNotifier(f, "a@example.com")

	if err := n.Notify(nil); err != nil {
		t.Fatalf("Notify(nil): %v", err)
	}
	if len(f.sent) != 0 {
		t.Errorf("sent %d mails, want 0", len(f.sent))
	}
}

func TestNotify_PartialFailureStillDelivers(t *testing.T) {
	f := &fakeSender{failFirst: 1}
	n := newTestNotifier(f, "a@example.com")

	listings := []model.Listing{sampleListing(), {ID: "JOB-2", Title: "Packer"}}
	if err := n.Notify(listings); err != nil {
		t.Fatalf("partial failure should not error: %v", err)
	}
	if len(f.sent) != 1 {
		t.Errorf("sent %d mails, want 1 (second listing delivered)", len(f.sent))
	}
}

func TestNotify_TotalFailureReturnsError(t *testing.T) {
	f := &fakeSender{failFirst: 2}
	n := newTestNotifier(f, "a@example.com")

	listings := []model.Listing{sampleListing(), {ID: "JOB-2", Title: "Packer"}}
	if err := n.Notify(listings); err == nil {
		t.Fatal("expected error when every send fails")
	}
}

func TestAlert(t *testing.T) {
	f := &fakeSender{}
	n := newTestNotifier(f, "a@example.com")

	if err := n.Alert("Agent error", "fetch failed twice"); err != nil {
		t.Fatalf("Alert: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.sent))
	}
	body := string(f.sent[0].msg)
	if !strings.Contains(body, "Subject: Agent error\r\n") || !strings.Contains(body, "fetch failed twice") {
		t.Errorf("alert message:\n%s", body)
	}
}

func TestAlert_FailurePropagates(t *testing.T) {
	f := &fakeSender{failFirst: 1}
	n := newTestNotifier(f, "a@example.com")

	if err := n.Alert("Agent error", "body"); err == nil {
		t.Fatal("expected error from failed alert send")
	}
}
