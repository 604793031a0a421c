package xmetrics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

func TestNewOTelObserver_Defaults(t *testing.T) {
	obs, err := NewOTelObserver(WithInstrumentationName(""), WithTracerProvider(nil), WithMeterProvider(nil), nil)
	require.NoError(t, err)
	require.NotNil(t, obs)

	_, span := obs.Start(context.Background(), SpanOptions{})
	span.End(Result{})
}

func TestOTelObserver_SpanNameAndKind(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{
		Component: "xlru",
		Operation: "put",
		Attrs:     []Attr{Int64("size", 42)},
	})
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xlru.put", spans[0].Name)
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	v, ok := attrValue(spans[0].Attributes, "size")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.AsInt64())
	v, ok = attrValue(spans[0].Attributes, "status")
	require.True(t, ok)
	assert.Equal(t, "ok", v.AsString())
}

func TestOTelObserver_UnknownNames(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Kind: KindClient})
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.unknown", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
}

func TestOTelSpan_EndWithError(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "sweep"})
	span.End(Result{Err: errors.New("lock timeout")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "lock timeout", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestOTelSpan_MissIsNotError(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "get"})
	span.End(Result{Status: StatusMiss, Err: errors.New("not found")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Empty(t, spans[0].Events)
}

func TestOTelSpan_ErrorStatusWithoutErr(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Operation: "x"})
	span.End(Result{Status: StatusError})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "operation failed", spans[0].Status.Description)
}

func TestOTelSpan_EndIsIdempotent(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	mp, reader := newTestMeterProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "remove"})
	span.End(Result{})
	span.End(Result{Err: errors.New("late")})

	assert.Len(t, exporter.GetSpans(), 1)

	m, ok := findMetric(collect(t, reader), metricOperationTotal)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestOTelObserver_Metrics(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	mp, reader := newTestMeterProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	for range 3 {
		_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "get"})
		span.End(Result{})
	}
	_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "get"})
	span.End(Result{Status: StatusMiss})

	rm := collect(t, reader)

	m, ok := findMetric(rm, metricOperationTotal)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value("status")
		byStatus[status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 3, "miss": 1}, byStatus)

	_, ok = findMetric(rm, metricOperationDuration)
	assert.True(t, ok)
}

func TestOTelObserver_RecordsAfterContextCancel(t *testing.T) {
	tp, _ := newTestTracerProvider(t)
	mp, reader := newTestMeterProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, span := obs.Start(ctx, SpanOptions{Component: "xlru", Operation: "sweep"})
	cancel()
	span.End(Result{Err: context.Canceled})

	_, ok := findMetric(collect(t, reader), metricOperationTotal)
	assert.True(t, ok)
}

func TestOTelObserver_Concurrent(t *testing.T) {
	tp, exporter := newTestTracerProvider(t)
	mp, _ := newTestMeterProvider(t)
	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				_, span := obs.Start(context.Background(), SpanOptions{Component: "xlru", Operation: "put"})
				span.End(Result{})
			}
		})
	}
	wg.Wait()
	assert.Len(t, exporter.GetSpans(), 400)
}
