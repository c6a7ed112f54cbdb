package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/rosterbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

const (
	IssueSkipped = "skipped"
	IssueWarning = "warning"
)

// RowIssue is one problem found on an uploaded row.
type RowIssue struct {
	Kind    string
	Field   string
	Message string
}

// QualityReport summarizes the row issues of one staged upload.
type QualityReport struct {
	Stage    string
	Rows     int
	Issues   []RowIssue
	Samples  []string
	Metadata map[string]any
}

type dqAlertState struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var dqAlerts dqAlertState

// ReportDataQuality counts issues by kind and field, logs a summary and posts a
// rate limited webhook alert when the skipped share crosses the threshold.
func ReportDataQuality(ctx context.Context, log *logger.Logger, m *Metrics, rep QualityReport) {
	if len(rep.Issues) == 0 {
		return
	}
	stage := strings.TrimSpace(rep.Stage)
	if stage == "" {
		stage = "unknown"
	}
	meta := map[string]any{}
	for k, v := range rep.Metadata {
		meta[k] = v
	}
	traceID, reqID := ctxutil.TraceIDs(ctx)
	if traceID != "" {
		meta["trace_id"] = traceID
	}
	if reqID != "" {
		meta["request_id"] = reqID
	}

	issueCounts := map[string]int{}
	skipped := 0
	for _, is := range rep.Issues {
		kind := is.Kind
		if kind == "" {
			kind = IssueWarning
		}
		field := strings.TrimSpace(is.Field)
		if field == "" {
			field = "row"
		}
		m.IncDataQuality(stage, kind, field)
		issueCounts[kind+":"+field]++
		if kind == IssueSkipped {
			skipped++
		}
	}

	if log != nil {
		log.Warn("data quality issue detected",
			"stage", stage,
			"rows", rep.Rows,
			"issues", issueCounts,
			"sample_errors", rep.Samples,
			"meta", meta,
		)
	}
	if skippedShare(skipped, rep.Rows) < dataQualityAlertThreshold() {
		return
	}
	sendDataQualityAlert(stage, issueCounts, rep.Samples, meta, log)
}

func skippedShare(skipped, accepted int) float64 {
	total := skipped + accepted
	if total == 0 {
		return 0
	}
	return float64(skipped) / float64(total)
}

func dataQualityAlertsEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("DATA_QUALITY_ALERTS_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func dataQualityAlertWebhook() string {
	return strings.TrimSpace(os.Getenv("DATA_QUALITY_ALERT_WEBHOOK_URL"))
}

// dataQualityAlertThreshold is the skipped-row share that triggers an alert.
func dataQualityAlertThreshold() float64 {
	raw := strings.TrimSpace(os.Getenv("DATA_QUALITY_ALERT_SKIP_RATIO"))
	if raw == "" {
		return 0.2
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0.2
	}
	return f
}

func dataQualityAlertMinInterval() time.Duration {
	raw := strings.TrimSpace(os.Getenv("DATA_QUALITY_ALERT_MIN_INTERVAL_SECONDS"))
	if raw == "" {
		return 5 * time.Minute
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}

func sendDataQualityAlert(stage string, issueCounts map[string]int, samples []string, meta map[string]any, log *logger.Logger) {
	if !dataQualityAlertsEnabled() {
		return
	}
	webhook := dataQualityAlertWebhook()
	if webhook == "" || len(issueCounts) == 0 {
		return
	}
	dqAlerts.mu.Lock()
	if dqAlerts.last == nil {
		dqAlerts.last = map[string]time.Time{}
	}
	last := dqAlerts.last[stage]
	if !last.IsZero() && time.Since(last) < dataQualityAlertMinInterval() {
		dqAlerts.mu.Unlock()
		return
	}
	dqAlerts.last[stage] = time.Now()
	dqAlerts.mu.Unlock()

	payload := map[string]any{
		"title":         "Roster upload data quality",
		"stage":         stage,
		"issues":        issueCounts,
		"sample_errors": samples,
		"meta":          meta,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		if log != nil {
			log.Warn("data quality alert request build failed", "error", err, "stage", stage)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Warn("data quality alert post failed", "error", err, "stage", stage)
		}
		return
	}
	_ = resp.Body.Close()
	if log != nil {
		log.Info("data quality alert sent", "stage", stage, "status", resp.StatusCode)
	}
}
