package core

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// LambdaHandler is the function signature lambda.Start expects for API
// Gateway HTTP API (payload format 2.0) integrations.
type LambdaHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// NewLambdaHandler adapts h to API Gateway HTTP API events. The gateway's
// request ID seeds X-Request-Id when the caller did not send one.
func NewLambdaHandler(h http.Handler) LambdaHandler {
	adapter := httpadapter.NewV2(h)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return adapter.ProxyWithContext(ctx, withGatewayRequestID(req))
	}
}

// withGatewayRequestID returns req with X-Request-Id set from the request
// context. The caller's header map is not modified.
func withGatewayRequestID(req events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPRequest {
	if req.RequestContext.RequestID == "" {
		return req
	}
	for k := range req.Headers {
		if strings.EqualFold(k, requestIDHeader) {
			return req
		}
	}

	headers := make(map[string]string, len(req.Headers)+1)
	maps.Copy(headers, req.Headers)
	headers[strings.ToLower(requestIDHeader)] = req.RequestContext.RequestID
	req.Headers = headers
	return req
}
