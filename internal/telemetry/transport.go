package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Transport wraps next with otelhttp client spans and records request metrics.
func Transport(next http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(&meteredTransport{next: next, metrics: GetMetrics()},
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

type meteredTransport struct {
	next    http.RoundTripper
	metrics *Metrics
}

func (t *meteredTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	attrs := []attribute.KeyValue{attribute.String("http.method", req.Method)}
	if resp != nil {
		attrs = append(attrs, attribute.Int("http.status_code", resp.StatusCode))
	}
	opt := metric.WithAttributes(attrs...)

	t.metrics.APIRequestsTotal.Add(ctx, 1, opt)
	t.metrics.APIRequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), opt)

	switch {
	case err != nil, resp.StatusCode >= http.StatusInternalServerError:
		t.metrics.APIRequestErrorsTotal.Add(ctx, 1, opt)
	case resp.StatusCode == http.StatusUnauthorized:
		t.metrics.APIUnauthorizedTotal.Add(ctx, 1, opt)
	}

	return resp, err
}
