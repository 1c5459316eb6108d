package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScan(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScan(3*time.Millisecond, 12, ResultOK)
	m.ObserveScan(time.Millisecond, 0, ResultNotFound)
	m.ObserveScan(time.Millisecond, 99, ResultError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues(ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues(ResultError)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.tokens), "failed scans must not add tokens")
}

func TestIncOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncOperation("words")
	m.IncOperation("words")
	m.IncOperation("palindromes")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("words")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("palindromes")))
}

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveScan(time.Millisecond, 1, ResultOK)
	m.IncOperation("tokens")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"textfreq_scans_total",
		"textfreq_tokens_total",
		"textfreq_scan_duration_seconds",
		"textfreq_operations_total",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}
}

func TestDefault_IsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveScan(time.Millisecond, 5, ResultOK)

	path := filepath.Join(t.TempDir(), "textfreq.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "textfreq_tokens_total 5"), "got:\n%s", data)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.ObserveScan(time.Second, 1, ResultOK)
	r.IncOperation("x")
}
