package main

import (
	"context"

	"github.com/spf13/viper"

	"github.com/agentctx/agentctx/pkg/telemetry"
	"github.com/agentctx/agentctx/pkg/version"
)

var tracingShutdown func(context.Context) error

// setupTracing initializes the OpenTelemetry tracer from configuration.
// Tracing is off unless explicitly enabled.
func setupTracing(ctx context.Context) error {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        viper.GetBool("tracing.enabled"),
		ServiceName:    "agentctx",
		ServiceVersion: version.Get().Version,
		SamplerType:    viper.GetString("tracing.sampler"),
		SamplerRatio:   viper.GetFloat64("tracing.ratio"),
	})
	if err != nil {
		return err
	}
	tracingShutdown = shutdown
	return nil
}

func shutdownTracing() {
	if tracingShutdown != nil {
		_ = tracingShutdown(context.Background())
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-sampler", "always", "Tracing sampler (always, never, ratio)")
	rootCmd.PersistentFlags().Float64("tracing-ratio", 1, "Sampling ratio when using the ratio sampler")

	viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("tracing-enabled"))
	viper.BindPFlag("tracing.sampler", rootCmd.PersistentFlags().Lookup("tracing-sampler"))
	viper.BindPFlag("tracing.ratio", rootCmd.PersistentFlags().Lookup("tracing-ratio"))
}
