package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/rosterbridge-backend/internal/platform/logger"
)

func TestReportDataQuality_CountsByKindAndField(t *testing.T) {
	m := New()
	ReportDataQuality(context.Background(), logger.Nop(), m, QualityReport{
		Stage: "staging",
		Rows:  10,
		Issues: []RowIssue{
			{Kind: IssueSkipped, Field: "person_key"},
			{Kind: IssueSkipped, Field: "person_key"},
			{Kind: IssueWarning, Field: "email"},
		},
	})

	require.Equal(t, 2.0, testutil.ToFloat64(m.dataQuality.WithLabelValues("staging", IssueSkipped, "person_key")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.dataQuality.WithLabelValues("staging", IssueWarning, "email")))
}

func TestReportDataQuality_AlertsAboveThreshold(t *testing.T) {
	var posts atomic.Int32
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("DATA_QUALITY_ALERTS_ENABLED", "true")
	t.Setenv("DATA_QUALITY_ALERT_WEBHOOK_URL", srv.URL)
	t.Setenv("DATA_QUALITY_ALERT_SKIP_RATIO", "0.5")

	// One skipped of three rows stays below the ratio.
	ReportDataQuality(context.Background(), nil, nil, QualityReport{
		Stage:  "alert-test-low",
		Rows:   2,
		Issues: []RowIssue{{Kind: IssueSkipped, Field: "first_name"}},
	})
	require.Equal(t, int32(0), posts.Load())

	rep := QualityReport{
		Stage:   "alert-test-high",
		Rows:    1,
		Issues:  []RowIssue{{Kind: IssueSkipped, Field: "person_key"}, {Kind: IssueSkipped, Field: "last_name"}},
		Samples: []string{"line 2, person_key: is required"},
	}
	ReportDataQuality(context.Background(), nil, nil, rep)
	require.Equal(t, int32(1), posts.Load())
	require.Equal(t, "alert-test-high", got["stage"])

	// Rate limited per stage.
	ReportDataQuality(context.Background(), nil, nil, rep)
	require.Equal(t, int32(1), posts.Load())
}
