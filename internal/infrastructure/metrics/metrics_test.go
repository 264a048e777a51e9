package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersAreExposed(t *testing.T) {
	ObserveIdentity("signup", nil)
	ObserveIdentity("verify_otp", errors.New("mismatch"))
	ObserveIngestRow("amc", OutcomeSuccess)
	ObserveIngestRow("nav", OutcomeSkipped)
	ObserveDefaultedMetric("aum")
	ObserveSyncRun(nil)

	body := scrape(t)
	assert.Contains(t, body, `myfi_identity_operations_total{operation="signup",outcome="success"}`)
	assert.Contains(t, body, `myfi_identity_operations_total{operation="verify_otp",outcome="failure"}`)
	assert.Contains(t, body, `myfi_ingest_rows_total{feed="amc",outcome="success"}`)
	assert.Contains(t, body, `myfi_ingest_rows_total{feed="nav",outcome="skipped"}`)
	assert.Contains(t, body, `myfi_ingest_defaulted_metrics_total{metric="aum"}`)
	assert.Contains(t, body, `myfi_sync_runs_total{outcome="success"}`)
	assert.Contains(t, body, "go_goroutines")
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcomeOf(nil))
	assert.Equal(t, OutcomeFailure, outcomeOf(errors.New("x")))
}
