package mailer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"

	"github.com/sungwon/notify-mailer/internal/render"
)

func TestBuildMessage_Alternative(t *testing.T) {
	cfg := testTransport()
	cfg.FromName = "HomeMarket"
	cfg.FromEmail = "noreply@example.com"

	raw, err := BuildMessage(cfg, "a@x.com", render.Email{
		Subject: "Réservation confirmée",
		HTML:    "<p>" + strings.Repeat("long line ", 200) + "</p>",
		Text:    "plain version",
	})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse message: %v", err)
	}

	subject, err := mr.Header.Subject()
	if err != nil || subject != "Réservation confirmée" {
		t.Errorf("expected decoded subject, got %q (%v)", subject, err)
	}
	from, err := mr.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "noreply@example.com" || from[0].Name != "HomeMarket" {
		t.Errorf("unexpected From %v (%v)", from, err)
	}
	to, err := mr.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "a@x.com" {
		t.Errorf("unexpected To %v (%v)", to, err)
	}
	if id, err := mr.Header.MessageID(); err != nil || id == "" {
		t.Errorf("expected Message-Id, got %q (%v)", id, err)
	}

	parts := map[string]string{}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			t.Fatalf("expected inline part, got %T", p.Header)
		}
		ct, _, _ := h.ContentType()
		body, _ := io.ReadAll(p.Body)
		parts[ct] = string(body)
	}

	if parts["text/plain"] != "plain version" {
		t.Errorf("unexpected text part %q", parts["text/plain"])
	}
	if !strings.HasPrefix(parts["text/html"], "<p>long line") {
		t.Errorf("unexpected html part %q", parts["text/html"])
	}
	for _, line := range strings.Split(string(raw), "\r\n") {
		if len(line) > 998 {
			t.Fatalf("line exceeds SMTP limit: %d chars", len(line))
		}
	}
}

func TestBuildMessage_DerivesTextFromHTML(t *testing.T) {
	raw, err := BuildMessage(testTransport(), "a@x.com", render.Email{Subject: "s", HTML: "<p>Hello <b>there</b></p>"})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p, err := mr.NextPart()
	if err != nil {
		t.Fatalf("first part: %v", err)
	}
	body, _ := io.ReadAll(p.Body)
	if string(body) != "Hello there" {
		t.Errorf("expected stripped text, got %q", body)
	}
}
