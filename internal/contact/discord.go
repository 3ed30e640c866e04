package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	colorMessage = 0xf59e0b
	colorSpam    = 0xef4444
	// Discord rejects embed field values longer than this.
	maxFieldValue = 1024
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{webhookURL: webhookURL, client: &http.Client{Timeout: 10 * time.Second}}
}

func contactMethodLabel(method string) string {
	switch method {
	case "email":
		return "Email"
	case "discord":
		return "Discord"
	default:
		return "Twitter (X)"
	}
}

func orUnset(v string) string {
	if v == "" {
		return "(empty)"
	}
	return v
}

func truncate(v string) string {
	r := []rune(v)
	if len(r) <= maxFieldValue {
		return v
	}
	return string(r[:maxFieldValue-1]) + "…"
}

func (d *DiscordNotifier) Notify(ctx context.Context, sub Submission, at time.Time) error {
	return d.post(ctx, embed{
		Title: "📬 New contact message",
		Color: colorMessage,
		Fields: []embedField{
			{Name: "Name", Value: truncate(sub.Name), Inline: true},
			{Name: "Contact method", Value: contactMethodLabel(sub.ContactMethod), Inline: true},
			{Name: "Contact", Value: truncate(sub.ContactInfo)},
			{Name: "Subject", Value: truncate(sub.Subject)},
			{Name: "Message", Value: truncate(sub.Message)},
		},
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

func (d *DiscordNotifier) NotifySpam(ctx context.Context, report SpamReport, at time.Time) error {
	sub := report.Submission
	e := embed{
		Color: colorSpam,
		Fields: []embedField{
			{Name: "Name", Value: truncate(orUnset(sub.Name)), Inline: true},
			{Name: "Contact method", Value: orUnset(sub.ContactMethod), Inline: true},
			{Name: "Contact", Value: truncate(orUnset(sub.ContactInfo))},
			{Name: "Subject", Value: truncate(orUnset(sub.Subject))},
			{Name: "Message", Value: truncate(orUnset(sub.Message))},
		},
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	switch report.Reason {
	case SpamHoneypot:
		e.Title = "🚫 Spam detected (honeypot)"
		e.Fields = append(e.Fields, embedField{Name: "Honeypot value", Value: truncate(sub.Website)})
	case SpamTooManyURLs:
		e.Title = "🚫 Spam detected (too many URLs)"
		e.Fields = append(e.Fields, embedField{Name: "URL count", Value: strconv.Itoa(report.LinkCount)})
	default:
		e.Title = "🚫 Spam detected"
	}
	return d.post(ctx, e)
}

func (d *DiscordNotifier) post(ctx context.Context, e embed) error {
	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
