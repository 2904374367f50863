package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/notify"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	leads []notify.Lead
	sent  int
	err   error
}

func (s *stubNotifier) Notify(_ context.Context, lead notify.Lead) (int, error) {
	s.leads = append(s.leads, lead)
	return s.sent, s.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, Router(Options{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestOptionalRoutesDisabled(t *testing.T) {
	r := Router(Options{})
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/api/leads", `{"name":"a"}`).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "alevit_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	rec := do(t, Router(Options{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alevit_test_total 1")
}

func TestLeadDelivered(t *testing.T) {
	n := &stubNotifier{sent: 2}
	body := `{"name":"Иван","phone":"+79000000000","area":"120","type":"brick","finish":"box","formType":"calculator"}`

	rec := do(t, Router(Options{Leads: n}), http.MethodPost, "/api/leads", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success   bool `json:"success"`
		Delivered int  `json:"delivered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Delivered)

	require.Len(t, n.leads, 1)
	assert.Equal(t, notify.Lead{
		Name: "Иван", Phone: "+79000000000", Area: "120",
		Type: "brick", Finish: "box", FormType: notify.FormCalculator,
	}, n.leads[0])
}

func TestLeadNotDeliveredIsBadGateway(t *testing.T) {
	n := &stubNotifier{err: errors.New("telegram down")}
	// No logger in Options: the failure path must still answer 502.
	rec := do(t, Router(Options{Leads: n}), http.MethodPost, "/api/leads", `{"phone":"1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	require.Len(t, n.leads, 1)
}

func TestLeadValidation(t *testing.T) {
	n := &stubNotifier{sent: 1}
	r := Router(Options{Leads: n})

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/leads", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/leads", `{"area":"100"}`).Code)
	assert.Empty(t, n.leads)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0"})
	assert.NoError(t, s.Shutdown(context.Background()))
}
