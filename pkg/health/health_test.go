package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	testData := []struct {
		name     string
		corpus   int
		redisErr error
		expected Status
		code     int
	}{
		{"all up", 3, nil, StatusUp, http.StatusOK},
		{"redis down degrades", 3, errors.New("connection refused"), StatusDegraded, http.StatusOK},
		{"empty corpus is down", 0, nil, StatusDown, http.StatusServiceUnavailable},
	}
	for _, d := range testData {
		t.Run(d.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("corpus", CorpusCheck(func() int { return d.corpus }))
			c.Register("redis", PingCheck(func(context.Context) error { return d.redisErr }, StatusDegraded))
			c.Register("postgres", PingCheck(nil, StatusDegraded))

			report := c.Run(context.Background())
			assert.Equal(t, d.expected, report.Status)
			assert.Len(t, report.Components, 3)

			rec := httptest.NewRecorder()
			c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, d.code, rec.Code)
			var decoded Report
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&decoded))
			assert.Equal(t, d.expected, decoded.Status)
		})
	}
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
	assert.Contains(t, body, "uptime")
}

func TestSlowCheckIsDown(t *testing.T) {
	c := NewChecker()
	c.SetCheckTimeout(20 * time.Millisecond)
	c.Register("corpus", CorpusCheck(func() int { return 1 }))
	c.Register("postgres", func(ctx context.Context) ComponentHealth {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return ComponentHealth{Status: StatusUp}
	})

	report := c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, "check timed out", report.Components["postgres"].Message)
	assert.Equal(t, StatusUp, report.Components["corpus"].Status)
	assert.Equal(t, []string{"corpus", "postgres"}, c.Names())
}
