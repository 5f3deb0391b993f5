package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/sungwon/notify-mailer/internal/auth"
	"github.com/sungwon/notify-mailer/internal/mailer"
	"github.com/sungwon/notify-mailer/internal/notify"
)

type fakeSender struct {
	req           notify.Request
	authorization string
	called        bool
	result        *notify.Result
	err           error
}

func (f *fakeSender) Send(_ context.Context, req notify.Request, authorization string) (*notify.Result, error) {
	f.called = true
	f.req = req
	f.authorization = authorization
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &notify.Result{MessageID: "msg-1"}, nil
}

func postSend(t *testing.T, h http.Handler, body, authorization string) (*httptest.ResponseRecorder, sendResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp sendResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, resp
}

func TestSendEmailHandler_Success(t *testing.T) {
	sender := &fakeSender{}
	body := `{"to":"a@x.com","subject":"Hi","template":"new_review","variables":{"rating":5,"user_name":"Ana"},"skipAuth":false}`

	rec, resp := postSend(t, SendEmailHandler(sender, 0), body, "Bearer tok")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !resp.Success || resp.MessageID != "msg-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if sender.authorization != "Bearer tok" {
		t.Errorf("authorization = %q", sender.authorization)
	}
	want := notify.Request{
		Recipients: []string{"a@x.com"},
		Subject:    "Hi",
		TemplateID: "new_review",
		Variables:  map[string]string{"rating": "5", "user_name": "Ana"},
	}
	if !reflect.DeepEqual(sender.req, want) {
		t.Errorf("request = %+v, want %+v", sender.req, want)
	}
}

func TestSendEmailHandler_RecipientArray(t *testing.T) {
	sender := &fakeSender{}
	body := `{"to":["a@x.com","b@x.com"],"html":"<p>x</p>","skipAuth":true}`

	rec, _ := postSend(t, SendEmailHandler(sender, 0), body, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !reflect.DeepEqual(sender.req.Recipients, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("recipients = %v", sender.req.Recipients)
	}
	if !sender.req.SkipAuthorization || sender.req.HTML != "<p>x</p>" {
		t.Errorf("request = %+v", sender.req)
	}
}

func TestSendEmailHandler_MalformedBody(t *testing.T) {
	tests := []string{
		`{"to":`,
		`{"to":42}`,
		`not json`,
	}
	for _, body := range tests {
		sender := &fakeSender{}
		rec, resp := postSend(t, SendEmailHandler(sender, 0), body, "Bearer tok")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected status 400, got %d", body, rec.Code)
		}
		if resp.Success || resp.Error != msgInvalidBody {
			t.Errorf("body %q: unexpected response %+v", body, resp)
		}
		if sender.called {
			t.Errorf("body %q: sender must not be called", body)
		}
	}
}

func TestSendEmailHandler_BodyTooLarge(t *testing.T) {
	sender := &fakeSender{}
	body := `{"to":"a@x.com","text":"` + strings.Repeat("x", 256) + `"}`
	rec, _ := postSend(t, SendEmailHandler(sender, 64), body, "Bearer tok")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestSendEmailHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"no recipients", notify.ErrNoRecipients, http.StatusBadRequest, msgNoRecipients},
		{"bad recipient", fmt.Errorf("%w: bad", notify.ErrInvalidRecipient), http.StatusBadRequest, msgInvalidRecipient},
		{"missing token", notify.ErrAuthenticationRequired, http.StatusUnauthorized, "Authorization required"},
		{"invalid token", fmt.Errorf("%w: expired", notify.ErrInvalidToken), http.StatusUnauthorized, "Invalid or expired token"},
		{"forbidden", notify.ErrForbiddenRecipients, http.StatusForbidden, "You can only send emails to your own address"},
		{"rate limited", fmt.Errorf("%w (5/5 per hour)", auth.ErrRateLimited), http.StatusTooManyRequests, "Rate limit exceeded"},
		{"disabled", notify.ErrTransportDisabled, http.StatusOK, msgDisabled},
		{"incomplete", notify.ErrTransportIncomplete, http.StatusOK, msgNotConfigured},
		{"verifier down", fmt.Errorf("verify token: %w", auth.ErrVerifierUnavailable), http.StatusServiceUnavailable, msgVerifierUnavailable},
		{
			"delivery",
			&mailer.DeliveryError{Stage: mailer.StageSend, Index: 1, Err: errors.New("550 mailbox unavailable")},
			http.StatusInternalServerError,
			"failed to send email: send: 550 mailbox unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{err: tt.err}
			rec, resp := postSend(t, SendEmailHandler(sender, 0), `{"to":"a@x.com"}`, "Bearer tok")

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestStringifyVariables(t *testing.T) {
	got := stringifyVariables(map[string]any{
		"name":   "Ana",
		"count":  float64(3),
		"price":  1250.5,
		"vip":    true,
		"empty":  nil,
		"nested": map[string]any{"a": "b"},
		"list":   []any{"x", "y"},
	})
	want := map[string]string{
		"name":   "Ana",
		"count":  "3",
		"price":  "1250.5",
		"vip":    "true",
		"empty":  "",
		"nested": `{"a":"b"}`,
		"list":   `["x","y"]`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stringifyVariables = %v, want %v", got, want)
	}
	if stringifyVariables(nil) != nil {
		t.Error("expected nil for no variables")
	}
}
