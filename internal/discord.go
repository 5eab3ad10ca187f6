package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	discordTimeout = 10 * time.Second
	colorNew       = 0x2ECC71 // green
	colorBack      = 0xFFA500 // orange
)

// DiscordSender posts sighting reports to a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
	formatter  ReportFormatter
}

func NewDiscordSender(webhookURL string, formatter ReportFormatter) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: discordTimeout},
		formatter:  formatter,
	}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (d *DiscordSender) embed(report SightingReport) discordEmbed {
	color := colorBack
	if report.IsFirstSighting() {
		color = colorNew
	}

	var fields []discordField
	if alt, ok := report.Event.Altitude(); ok {
		fields = append(fields, discordField{Name: "Altitude", Value: fmt.Sprintf("%d m", int(alt)), Inline: true})
	}
	if freq := report.Event.GetFrequencyAsStr(); freq != "" {
		fields = append(fields, discordField{Name: "Frequency", Value: freq, Inline: true})
	}
	if uploader := report.Event.Uploader(); uploader != "" {
		fields = append(fields, discordField{Name: "Heard by", Value: uploader, Inline: true})
	}
	if frameTime := report.Event.Datetime(); frameTime != "" {
		fields = append(fields, discordField{Name: "Frame time", Value: frameTime, Inline: false})
	}

	return discordEmbed{
		Title:       d.formatter.Title(report),
		Description: d.formatter.Format(report),
		URL:         report.URL,
		Color:       color,
		Timestamp:   report.SeenAt.UTC().Format(time.RFC3339),
		Fields:      fields,
	}
}

// Report sends one embed per report. Without a webhook URL this is a no-op.
func (d *DiscordSender) Report(report SightingReport) error {
	if d.webhookURL == "" {
		return nil
	}

	payload := discordWebhookPayload{
		Embeds: []discordEmbed{d.embed(report)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}
