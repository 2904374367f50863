package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveUpdate("text")
	m.ObserveCommand("menu", true)
	m.ObserveWorkflow("project_add", "started")
	m.ObserveIngestAttempt("ok")
	m.ObserveWrite("projects")
	m.ObserveLead("sent")
	assert.Nil(t, m.Registry())
}

func TestCountersAndGauge(t *testing.T) {
	sessions := 2
	m := New(func() int { return sessions })

	m.ObserveWorkflow("project_add", "completed")
	m.ObserveWorkflow("project_add", "completed")
	m.ObserveWrite("contacts")
	m.ObserveCommand("projects_delete", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.workflows.WithLabelValues("project_add", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("contacts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("projects_delete", "false")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "alevit_active_sessions 2"), body)
	assert.Contains(t, body, `alevit_repository_writes_total{document="contacts"} 1`)
}
