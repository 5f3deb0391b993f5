package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type sendPayload struct {
	To        []string          `json:"to"`
	Subject   string            `json:"subject,omitempty"`
	Template  string            `json:"template,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	HTML      string            `json:"html,omitempty"`
	Text      string            `json:"text,omitempty"`
	SkipAuth  bool              `json:"skipAuth,omitempty"`
}

type sendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

func newSendCmd() *cobra.Command {
	var (
		apiURL  string
		token   string
		payload sendPayload
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a notification through the running API",
		Example: `  notifyctl send --to user@example.com --template new_review --var rating=5 --token $TOKEN
  notifyctl send --to ops@example.com --subject "Deploy done" --text "All green" --skip-auth`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(payload.To) == 0 {
				return fmt.Errorf("--to is required")
			}
			client := &http.Client{Timeout: timeout}
			res, status, err := postSend(cmd, client, apiURL, token, payload)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("send failed (%d): %s", status, res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", res.MessageID)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "http://localhost:8080", "notification API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token of the caller")
	cmd.Flags().StringSliceVar(&payload.To, "to", nil, "recipient address (repeatable or comma separated)")
	cmd.Flags().StringVar(&payload.Subject, "subject", "", "subject")
	cmd.Flags().StringVar(&payload.Template, "template", "", "template id")
	cmd.Flags().StringToStringVar(&payload.Variables, "var", nil, "template variable as key=value (repeatable)")
	cmd.Flags().StringVar(&payload.HTML, "html", "", "raw HTML body")
	cmd.Flags().StringVar(&payload.Text, "text", "", "plain text body")
	cmd.Flags().BoolVar(&payload.SkipAuth, "skip-auth", false, "send as a system notification")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	return cmd
}

func postSend(cmd *cobra.Command, client *http.Client, apiURL, token string, payload sendPayload) (*sendResult, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(apiURL, "/") + "/api/v1/send-email"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	var res sendResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	return &res, resp.StatusCode, nil
}
