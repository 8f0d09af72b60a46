package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Pipeline.EntriesCreated.WithLabelValues("POSITIVE").Inc()
	m.Cache.Hits.Inc()
	m.Publisher.Failures.WithLabelValues("kafka").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pipeline.EntriesCreated.WithLabelValues("POSITIVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cache.Hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Publisher.Failures.WithLabelValues("kafka")))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.Pipeline.EntriesDeleted.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serenify_journal_entries_deleted_total 1")
}
