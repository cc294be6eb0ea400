package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLowCoverage         AlertType = "low_jurisdiction_coverage"
	AlertHighSyntheticShare  AlertType = "high_synthetic_share"
	AlertHighIngestRejects   AlertType = "high_ingest_reject_rate"
	AlertMissingFacilityData AlertType = "missing_facility_data"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Areas > 0 && snap.CoverageFraction < a.cfg.CoverageThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertLowCoverage,
			Severity: "high",
			Message: fmt.Sprintf(
				"Jurisdiction coverage %.1f%% below threshold %.1f%% (%d areas unresolved)",
				snap.CoverageFraction*100, a.cfg.CoverageThreshold*100, snap.Unresolved,
			),
			Details: map[string]any{
				"coverage":   snap.CoverageFraction,
				"threshold":  a.cfg.CoverageThreshold,
				"unresolved": snap.Unresolved,
			},
			Timestamp: now,
		})
	}

	worstShare := snap.SyntheticDemographicShare
	if snap.SyntheticTrendShare > worstShare {
		worstShare = snap.SyntheticTrendShare
	}
	if snap.Areas > 0 && worstShare > a.cfg.SyntheticShareThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertHighSyntheticShare,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Synthetic data share %.1f%% exceeds threshold %.1f%%",
				worstShare*100, a.cfg.SyntheticShareThreshold*100,
			),
			Details: map[string]any{
				"demographic_share": snap.SyntheticDemographicShare,
				"trend_share":       snap.SyntheticTrendShare,
				"threshold":         a.cfg.SyntheticShareThreshold,
			},
			Timestamp: now,
		})
	}

	if snap.IngestRuns > 0 && snap.IngestRejectRate > a.cfg.RejectRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertHighIngestRejects,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Ingest reject rate %.1f%% exceeds threshold %.1f%% over last %d runs",
				snap.IngestRejectRate*100, a.cfg.RejectRateThreshold*100, snap.IngestRuns,
			),
			Details: map[string]any{
				"reject_rate": snap.IngestRejectRate,
				"threshold":   a.cfg.RejectRateThreshold,
				"runs":        snap.IngestRuns,
			},
			Timestamp: now,
		})
	}

	var empty []string
	for category, count := range snap.FacilityCounts {
		if count == 0 {
			empty = append(empty, string(category))
		}
	}
	if len(empty) > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertMissingFacilityData,
			Severity:  "medium",
			Message:   fmt.Sprintf("%d facility categories have no loaded points", len(empty)),
			Details:   map[string]any{"categories": empty},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
