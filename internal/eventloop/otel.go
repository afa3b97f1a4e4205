package eventloop

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/citypulse/client/internal/eventloop"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
