package monitoring

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, p *Prometheus) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordToolCall(t *testing.T) {
	p := New()
	p.RecordToolCall("weather", true)
	p.RecordToolCall("weather", false)
	p.RecordToolCall("calculator", true)

	body := scrape(t, p)
	assert.Contains(t, body, `agent_tool_executions_total{status="success",tool_name="weather"} 1`)
	assert.Contains(t, body, `agent_tool_executions_total{status="failure",tool_name="weather"} 1`)
	assert.Contains(t, body, `agent_tool_executions_total{status="success",tool_name="calculator"} 1`)
}

func TestRecordModelCall(t *testing.T) {
	p := New()
	p.RecordModelCall("openai", 700*time.Millisecond, nil)
	p.RecordModelCall("openai", 3*time.Second, errors.New("timeout"))

	body := scrape(t, p)
	assert.Contains(t, body, `agent_llm_latency_seconds_count{provider="openai"} 2`)
}

func TestRecordTurn(t *testing.T) {
	p := New()
	p.RecordTurn("cli")
	p.RecordTurn("http")
	p.RecordTurn("http")

	body := scrape(t, p)
	assert.Contains(t, body, `agent_invocations_total{interface="cli"} 1`)
	assert.Contains(t, body, `agent_invocations_total{interface="http"} 2`)
}

func TestIndependentRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	a := New()
	b := New()
	a.RecordTurn("cli")

	assert.Contains(t, scrape(t, a), `agent_invocations_total{interface="cli"} 1`)
	assert.NotContains(t, scrape(t, b), `interface="cli"`)
}
