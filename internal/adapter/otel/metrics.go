package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "atelier"

// Metrics holds the service's metric instruments.
type Metrics struct {
	AggregationRuns     metric.Int64Counter
	ClonesStarted       metric.Int64Counter
	ClonesRolledBack    metric.Int64Counter
	LeadsConverted      metric.Int64Counter
	ReorderPartialFails metric.Int64Counter
	AggregationSeconds  metric.Float64Histogram
	CloneSeconds        metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AggregationRuns, err = meter.Int64Counter("atelier.aggregation.runs",
		metric.WithDescription("Number of completion aggregation walks"))
	if err != nil {
		return nil, err
	}

	m.ClonesStarted, err = meter.Int64Counter("atelier.clones.started",
		metric.WithDescription("Number of duplication/template runs started"))
	if err != nil {
		return nil, err
	}

	m.ClonesRolledBack, err = meter.Int64Counter("atelier.clones.rolled_back",
		metric.WithDescription("Number of clone batches cleaned up after failure"))
	if err != nil {
		return nil, err
	}

	m.LeadsConverted, err = meter.Int64Counter("atelier.leads.converted",
		metric.WithDescription("Number of leads converted to clients"))
	if err != nil {
		return nil, err
	}

	m.ReorderPartialFails, err = meter.Int64Counter("atelier.reorder.partial_failures",
		metric.WithDescription("Number of bulk reorders that failed partway"))
	if err != nil {
		return nil, err
	}

	m.AggregationSeconds, err = meter.Float64Histogram("atelier.aggregation.duration_seconds",
		metric.WithDescription("Aggregation walk duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.CloneSeconds, err = meter.Float64Histogram("atelier.clone.duration_seconds",
		metric.WithDescription("Clone run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
