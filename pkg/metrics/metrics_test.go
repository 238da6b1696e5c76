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

func TestHandlerScrapesOwnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SearchQueriesTotal.WithLabelValues("hit").Add(3)
	m.CorpusQuotes.Set(15)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `search_queries_total{result_type="hit"} 3`)
	assert.Contains(t, body, "corpus_quotes 15")
}

func TestNewRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/search", "200").Inc()
	m.CorpusLoadsTotal.WithLabelValues("file", "ok").Inc()
	m.ShardQuoteCount.WithLabelValues("0").Set(4)
	m.CircuitBreakerState.WithLabelValues("redis-cache").Set(1)

	assert.Equal(t, 4, testutil.CollectAndCount(m.ShardQuoteCount)+testutil.CollectAndCount(m.CorpusLoadsTotal)+
		testutil.CollectAndCount(m.HTTPRequestsTotal)+testutil.CollectAndCount(m.CircuitBreakerState))
	assert.Panics(t, func() { New(reg) }, "registering twice must fail")
}
