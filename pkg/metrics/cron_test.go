package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("outbox-retention", 250*time.Millisecond, nil)
	m.ObserveRun("outbox-retention", time.Second, nil)
	m.ObserveRun("outbox-retention", time.Millisecond, errors.New("db down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	ok, err := series(mfs, "fieldservice_cron_job_runs_total", map[string]string{"job": "outbox-retention", "outcome": "success"})
	require.NoError(t, err)
	require.Equal(t, 2.0, ok.GetCounter().GetValue())

	failed, err := series(mfs, "fieldservice_cron_job_runs_total", map[string]string{"job": "outbox-retention", "outcome": "failure"})
	require.NoError(t, err)
	require.Equal(t, 1.0, failed.GetCounter().GetValue())

	hist, err := series(mfs, "fieldservice_cron_job_duration_seconds", map[string]string{"job": "outbox-retention"})
	require.NoError(t, err)
	require.EqualValues(t, 3, hist.GetHistogram().GetSampleCount())

	last, err := series(mfs, "fieldservice_cron_job_last_success_timestamp_seconds", map[string]string{"job": "outbox-retention"})
	require.NoError(t, err)
	require.Greater(t, last.GetGauge().GetValue(), 0.0)
}

func TestCronJobMetricsFailureLeavesLastSuccessUnset(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCronJobMetrics(reg).ObserveRun("", time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	_, err = series(mfs, "fieldservice_cron_job_runs_total", map[string]string{"job": "unknown", "outcome": "failure"})
	require.NoError(t, err)
	_, err = series(mfs, "fieldservice_cron_job_last_success_timestamp_seconds", map[string]string{"job": "unknown"})
	require.Error(t, err)

	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("noop", time.Second, nil)
}
