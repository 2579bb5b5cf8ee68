package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultServiceName is the service.name reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "perf-annotate"

// Environment variables read by LoadFromEnv.
const (
	EnvEnabled       = "OTEL_ENABLED"
	EnvServiceName   = "OTEL_SERVICE_NAME"
	EnvServiceVer    = "OTEL_SERVICE_VERSION"
	EnvEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvProtocol      = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvHeaders       = "OTEL_EXPORTER_OTLP_HEADERS"
	EnvInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvSampler       = "OTEL_TRACES_SAMPLER"
	EnvSamplerArg    = "OTEL_TRACES_SAMPLER_ARG"
	EnvResourceAttrs = "OTEL_RESOURCE_ATTRIBUTES"
)

// Supported OTLP protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// Config holds the tracing setup of one process.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address. An "http://" scheme implies an
	// insecure connection.
	Endpoint string
	Protocol string
	Headers  map[string]string
	Insecure bool

	// Sampler is one of the OTEL_TRACES_SAMPLER names; empty means always_on.
	Sampler    string
	SamplerArg string

	ResourceAttrs map[string]string
}

// LoadFromEnv reads the standard OTEL_* variables. version is reported when
// OTEL_SERVICE_VERSION is unset.
func LoadFromEnv(version string) *Config {
	if version == "" {
		version = "unknown"
	}
	return &Config{
		Enabled:        envBool(EnvEnabled),
		ServiceName:    envOr(EnvServiceName, DefaultServiceName),
		ServiceVersion: envOr(EnvServiceVer, version),
		Endpoint:       os.Getenv(EnvEndpoint),
		Protocol:       envOr(EnvProtocol, ProtocolGRPC),
		Headers:        parseKeyValuePairs(os.Getenv(EnvHeaders)),
		Insecure:       envBool(EnvInsecure),
		Sampler:        os.Getenv(EnvSampler),
		SamplerArg:     os.Getenv(EnvSamplerArg),
		ResourceAttrs:  parseKeyValuePairs(os.Getenv(EnvResourceAttrs)),
	}
}

// Validate checks the protocol and sampler settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Protocol) {
	case "", ProtocolGRPC, ProtocolHTTP, "http":
	default:
		return fmt.Errorf("unsupported OTLP protocol %q", c.Protocol)
	}
	if _, err := ParseSampler(c.Sampler, c.SamplerArg); err != nil {
		return err
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// parseKeyValuePairs parses "k1=v1,k2=v2". Values may contain '='.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
