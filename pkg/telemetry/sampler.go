package telemetry

import (
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/sdk/trace"
)

// ParseSampler builds the sampler named by an OTEL_TRACES_SAMPLER value.
// An empty name samples everything.
func ParseSampler(name, arg string) (trace.Sampler, error) {
	switch name {
	case "", "always_on":
		return trace.AlwaysSample(), nil
	case "always_off":
		return trace.NeverSample(), nil
	case "parentbased_always_on":
		return trace.ParentBased(trace.AlwaysSample()), nil
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample()), nil
	}

	ratio, err := parseRatio(arg)
	if err != nil {
		return nil, err
	}
	switch name {
	case "traceidratio":
		return trace.TraceIDRatioBased(ratio), nil
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(ratio)), nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", name)
	}
}

// parseRatio reads a sampling ratio clamped to [0, 1]. Empty means 1.
func parseRatio(s string) (float64, error) {
	if s == "" {
		return 1, nil
	}
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sampler ratio %q: %w", s, err)
	}
	return min(max(ratio, 0), 1), nil
}
