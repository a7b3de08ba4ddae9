package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricExternalAPIFailure = "ExternalAPIFailure"
	MetricExternalAPILatency = "ExternalAPILatency"
	MetricEventScore         = "EventScore"
	MetricStaleResult        = "StaleResultDiscarded"

	// Dimension Keys
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"
	DimProvider = "Provider"
	DimResult   = "Result"

	// Metric Namespace
	MetricNamespace = "EventCast"
)

// Upstream provider identifiers used as metric dimensions and breaker names.
const (
	ProviderWeather  = "visualcrossing"
	ProviderGeocoder = "nominatim"
)
