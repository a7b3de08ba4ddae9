// Package metrics publishes eventcast telemetry to CloudWatch.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"eventcast/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder is everything eventcast measures.
type Recorder interface {
	RecordRequest(ctx context.Context, method, endpoint string, status int, latency time.Duration)
	RecordUpstream(ctx context.Context, provider string, latency time.Duration, err error)
	RecordScore(ctx context.Context, score int)
	RecordStaleDiscard(ctx context.Context)
}

// Result dimension values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	_ Recorder = (*CloudWatchRecorder)(nil)
	_ Recorder = Noop{}
)

// CloudWatchRecorder emits one PutMetricData call per observation.
//
// Metrics emitted:
//   - APIRequestCount, APILatency: Dims {Endpoint, Method, Status}
//   - ExternalAPILatency: Dims {Provider, Result}
//   - ExternalAPIFailure: Dims {Provider}, only on failure
//   - EventScore: no dims, value is the score
//   - StaleResultDiscarded: no dims
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a recorder that publishes to namespace
// (types.MetricNamespace when empty).
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits a request count and latency for an API call.
func (m *CloudWatchRecorder) RecordRequest(ctx context.Context, method, endpoint string, status int, latency time.Duration) {
	dims := []cwtypes.Dimension{
		dim(types.DimEndpoint, endpoint),
		dim(types.DimMethod, method),
		dim(types.DimStatus, strconv.Itoa(status)),
	}
	m.put(ctx, "request",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(latency.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

// RecordUpstream emits latency for a provider call and, when err is set, a failure count.
func (m *CloudWatchRecorder) RecordUpstream(ctx context.Context, provider string, latency time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}

	data := []cwtypes.MetricDatum{{
		MetricName: aws.String(types.MetricExternalAPILatency),
		Value:      aws.Float64(float64(latency.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimProvider, provider),
			dim(types.DimResult, result),
		},
	}}
	if err != nil {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricExternalAPIFailure),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{dim(types.DimProvider, provider)},
		})
	}
	m.put(ctx, "upstream", data...)
}

// RecordScore emits the value of a computed event score.
func (m *CloudWatchRecorder) RecordScore(ctx context.Context, score int) {
	m.put(ctx, "score", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricEventScore),
		Value:      aws.Float64(float64(score)),
		Unit:       cwtypes.StandardUnitNone,
	})
}

// RecordStaleDiscard counts a superseded outlook that was thrown away.
func (m *CloudWatchRecorder) RecordStaleDiscard(ctx context.Context) {
	m.put(ctx, "stale", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricStaleResult),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
	})
}

// put sends data and logs, rather than returns, any failure. Telemetry must
// never fail a request.
func (m *CloudWatchRecorder) put(ctx context.Context, kind string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil && m.logger != nil {
		m.logger.Error("failed to record metric",
			"error", err.Error(),
			"kind", kind,
		)
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// Noop discards everything. Used when metrics are disabled.
type Noop struct{}

func (Noop) RecordRequest(context.Context, string, string, int, time.Duration) {}
func (Noop) RecordUpstream(context.Context, string, time.Duration, error)      {}
func (Noop) RecordScore(context.Context, int)                                  {}
func (Noop) RecordStaleDiscard(context.Context)                                {}
