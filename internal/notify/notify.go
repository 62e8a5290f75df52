// Package notify delivers daily analysis results and errors over the
// configured channels (email, webhook). Delivery failures never block
// the run; the agent logs them and moves on.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"macro-trader/internal/config"
	"macro-trader/internal/models"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	SendAnalysis(ctx context.Context, analysis models.Analysis) error
	SendError(ctx context.Context, err error, errContext string) error
}

// Channel is a single delivery channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, subject, body string, data map[string]interface{}) error
	IsEnabled() bool
}

// MultiNotifier fans a notification out to all enabled channels.
type MultiNotifier struct {
	channels []Channel
}

// NewMultiNotifier builds a notifier from configuration. Disabled
// channels are skipped entirely.
func NewMultiNotifier(cfg config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{}
	if !cfg.Enabled {
		return mn
	}
	if cfg.Email.Enabled {
		mn.channels = append(mn.channels, NewEmailChannel(cfg.Email))
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookChannel(cfg.Webhook))
	}
	return mn
}

// SendAnalysis delivers the daily gold analysis.
func (mn *MultiNotifier) SendAnalysis(ctx context.Context, analysis models.Analysis) error {
	subject := fmt.Sprintf("Gold Signal: %s (%s confidence) - %s",
		analysis.Result.Signal, analysis.Result.Confidence,
		analysis.GeneratedAt.Format("2006-01-02"))

	body := renderAnalysisBody(analysis)

	data := map[string]interface{}{
		"signal":       string(analysis.Result.Signal),
		"bias":         analysis.Result.Bias,
		"confidence":   string(analysis.Result.Confidence),
		"fed_rate":     analysis.Snapshot.FedRate,
		"treasury_10y": analysis.Snapshot.Treasury10Y,
		"cpi_yoy":      analysis.Snapshot.CPIYoY,
		"gold_price":   analysis.Snapshot.GoldPrice,
		"dxy_level":    analysis.Snapshot.DXYLevel,
		"generated_at": analysis.GeneratedAt.Format(time.RFC3339),
	}

	return mn.send(ctx, subject, body, data)
}

// SendError delivers an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	subject := "Macro Trader Error"
	body := fmt.Sprintf("Context: %s\nError: %v\nTime: %s",
		errContext, err, time.Now().Format("2006-01-02 15:04:05"))

	return mn.send(ctx, subject, body, map[string]interface{}{
		"context": errContext,
		"error":   err.Error(),
	})
}

func (mn *MultiNotifier) send(ctx context.Context, subject, body string, data map[string]interface{}) error {
	var errs []string
	for _, ch := range mn.channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, subject, body, data); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// renderAnalysisBody formats the plain-text daily analysis message.
func renderAnalysisBody(analysis models.Analysis) string {
	snap := analysis.Snapshot
	result := analysis.Result

	var sb strings.Builder
	sb.WriteString("DAILY GOLD MACRO ANALYSIS\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", analysis.GeneratedAt.Format("2006-01-02 15:04:05"))

	sb.WriteString("MACRO SNAPSHOT\n")
	fmt.Fprintf(&sb, "Fed Funds Rate:   %.2f%%\n", snap.FedRate)
	fmt.Fprintf(&sb, "10Y Treasury:     %.2f%%\n", snap.Treasury10Y)
	fmt.Fprintf(&sb, "CPI YoY:          %.1f%%\n", snap.CPIYoY)
	fmt.Fprintf(&sb, "Gold Price:       $%.2f\n", snap.GoldPrice)
	fmt.Fprintf(&sb, "Dollar Index:     %.1f\n\n", snap.DXYLevel)

	sb.WriteString("SIGNAL\n")
	fmt.Fprintf(&sb, "Direction:   %s\n", result.Signal)
	fmt.Fprintf(&sb, "Bias:        %s\n", result.Bias)
	fmt.Fprintf(&sb, "Confidence:  %s\n", result.Confidence)
	fmt.Fprintf(&sb, "Fed Stance:  %s (%.2f%%)\n", result.Components.FedBias, result.Components.FedRate)
	fmt.Fprintf(&sb, "USD Stance:  %s (%.1f)\n\n", result.Components.DxyBias, result.Components.DxyLevel)

	if analysis.Reasoning != "" {
		sb.WriteString("RATIONALE\n")
		sb.WriteString(analysis.Reasoning)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WebhookChannel posts notifications as JSON to an HTTP endpoint.
type WebhookChannel struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookChannel creates a webhook channel.
func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the name of the channel.
func (w *WebhookChannel) Name() string { return "webhook" }

// IsEnabled returns whether the channel is enabled.
func (w *WebhookChannel) IsEnabled() bool { return w.enabled }

// Send posts the notification payload.
func (w *WebhookChannel) Send(ctx context.Context, subject, body string, data map[string]interface{}) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"title":     subject,
		"message":   body,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MacroTrader/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// EmailChannel sends notifications via SMTP.
type EmailChannel struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       string
	enabled  bool
}

// NewEmailChannel creates an email channel.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	username := cfg.Username
	if username == "" {
		username = cfg.From
	}
	return &EmailChannel{
		smtpHost: cfg.SMTPHost,
		smtpPort: cfg.SMTPPort,
		username: username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		enabled:  cfg.Enabled && cfg.SMTPHost != "" && cfg.From != "" && cfg.To != "",
	}
}

// Name returns the name of the channel.
func (e *EmailChannel) Name() string { return "email" }

// IsEnabled returns whether the channel is enabled.
func (e *EmailChannel) IsEnabled() bool { return e.enabled }

// Send delivers the message over SMTP. Port 465 uses implicit TLS;
// everything else goes through SendMail (STARTTLS on 587).
func (e *EmailChannel) Send(ctx context.Context, subject, body string, data map[string]interface{}) error {
	if !e.enabled {
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		e.from, e.to, subject, body)

	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	var auth smtp.Auth
	if e.username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	}

	if e.smtpPort == 465 {
		return e.sendWithTLS(addr, auth, msg)
	}
	return smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg))
}

func (e *EmailChannel) sendWithTLS(addr string, auth smtp.Auth, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.smtpHost})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(e.to); err != nil {
		return fmt.Errorf("SMTP RCPT command failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}
	return client.Quit()
}

// NoOpNotifier discards all notifications.
type NoOpNotifier struct{}

// SendAnalysis does nothing.
func (NoOpNotifier) SendAnalysis(ctx context.Context, analysis models.Analysis) error { return nil }

// SendError does nothing.
func (NoOpNotifier) SendError(ctx context.Context, err error, errContext string) error { return nil }
