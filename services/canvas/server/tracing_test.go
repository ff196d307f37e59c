// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_Stdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracer(context.Background(), TelemetryConfig{
		Exporter:    ExporterStdout,
		ServiceName: "aircanvas-test",
		Writer:      &buf,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "EvaluateSpan")
	span.End()
	shutdown(context.Background())

	out := buf.String()
	assert.Contains(t, out, "EvaluateSpan")
	assert.Contains(t, out, "aircanvas-test")
}

func TestInitTracer_None(t *testing.T) {
	for _, name := range []string{"", ExporterNone} {
		shutdown, err := InitTracer(context.Background(), TelemetryConfig{Exporter: name})
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		shutdown(context.Background())
	}
}

func TestInitTracer_Unknown(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TelemetryConfig{Exporter: "zipkin"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
	assert.NotNil(t, shutdown)
}
