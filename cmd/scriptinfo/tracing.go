// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/blinklabs-io/scriptinfo/internal/config"
	"github.com/blinklabs-io/scriptinfo/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing installs a global tracer provider when tracing is enabled.
// OTLP export is configured with the standard OTEL_EXPORTER_OTLP_* env vars.
// The returned func flushes and stops the provider.
func setupTracing(
	ctx context.Context,
	cfg *config.Config,
	stdout io.Writer,
) (func(context.Context) error, error) {
	if !cfg.Tracing {
		return func(context.Context) error { return nil }, nil
	}
	var exporter sdktrace.SpanExporter
	if cfg.TracingStdout {
		stdoutExporter, err := stdouttrace.New(
			stdouttrace.WithWriter(stdout),
		)
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		exporter = stdoutExporter
	} else {
		otlpExporter, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
		}
		exporter = otlpExporter
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(
			resource.NewSchemaless(
				attribute.String("service.name", programName),
				attribute.String("service.version", version.GetVersionString()),
			),
		),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
