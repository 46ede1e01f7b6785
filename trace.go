package zest

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("impractical.co/zest")
