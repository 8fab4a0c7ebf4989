package network

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter. Without a configured provider both are no-ops.
var (
	tracer = otel.Tracer("rxnpath.network")
	meter  = otel.Meter("rxnpath.network")
)

var (
	buildLatency  metric.Float64Histogram
	reactionEdges metric.Int64Histogram
	pathsFound    metric.Int64Histogram
	pathShortfall metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments once.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"rxnpath_build_duration_seconds",
			metric.WithDescription("Duration of reaction network builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		reactionEdges, err = meter.Int64Histogram(
			"rxnpath_reaction_edges",
			metric.WithDescription("Number of reaction edges per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsFound, err = meter.Int64Histogram(
			"rxnpath_paths_found",
			metric.WithDescription("Number of paths returned per k-shortest query"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathShortfall, err = meter.Int64Counter(
			"rxnpath_path_shortfall_total",
			metric.WithDescription("Requested paths that could not be found"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, d time.Duration, edges int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	buildLatency.Record(ctx, d.Seconds(), attrs)
	if success {
		reactionEdges.Record(ctx, int64(edges))
	}
}

func recordPathMetrics(ctx context.Context, found, shortfall int) {
	if err := initMetrics(); err != nil {
		return
	}
	pathsFound.Record(ctx, int64(found))
	if shortfall > 0 {
		pathShortfall.Add(ctx, int64(shortfall))
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ReactionNetwork."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
