package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/plus3/tickecs/ecs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)
}

func TestRunRejectsUnknownProfile(t *testing.T) {
	var out bytes.Buffer
	err := run(options{duration: time.Millisecond, profile: "block"}, ecs.Config{}, testLogger(t), &out)
	assert.ErrorContains(t, err, `unknown profile mode "block"`)
	assert.Zero(t, out.Len())
}

func TestRunWritesReport(t *testing.T) {
	var out bytes.Buffer
	opts := options{duration: 50 * time.Millisecond, entities: 200, parallel: true, churn: 0.05}
	require.NoError(t, run(opts, ecs.Config{Workers: 2}, testLogger(t), &out))

	report := out.String()
	assert.Contains(t, report, "--- Stress Test Report ---")
	assert.Contains(t, report, "# ECS Stress Test Report")
	assert.Contains(t, report, "--- End of Report ---")
}
