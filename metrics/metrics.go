package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// SignOnsTotal counts accepted operator sign-ons.
	SignOnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gostation_sign_ons_total",
		Help: "The total number of accepted operator sign-ons",
	})

	// FilterInterceptionsTotal counts command tokens intercepted at a prompt,
	// by result (quit, reboot, shutdown, signoff).
	FilterInterceptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gostation_filter_interceptions_total",
		Help: "The total number of entries intercepted by the command filter",
	}, []string{"result"})

	// BarcodeDecodesTotal counts identified DUT entries by label decode
	// result. barcode_format is an entry that matched no label and was taken
	// as a typed id; SN/PIN label misses are re-prompted and not counted.
	BarcodeDecodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gostation_barcode_decodes_total",
		Help: "The total number of DUT entries by label decode result (barcode_format = typed id)",
	}, []string{"code"})

	// DUTTestsTotal counts finished DUT tests by result (pass, fail).
	DUTTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gostation_dut_tests_total",
		Help: "The total number of DUT tests run",
	}, []string{"result"})

	// TestDuration is the distribution of DUT test run times.
	TestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gostation_test_duration_seconds",
		Help:    "Time spent running a DUT test",
		Buckets: prometheus.DefBuckets,
	})

	// MQTTConnected is 1 while the event broker connection is up.
	MQTTConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gostation_mqtt_connected",
		Help: "Whether the MQTT event connection is established",
	})
)

// Config holds the metrics listener settings.
type Config struct {
	Listen string `yaml:"listen"` // e.g. ":9100"; empty disables the listener
}

// Handler returns the HTTP mux serving /metrics.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve runs the metrics listener until ctx is done. It returns nil at once
// when no listen address is configured.
func Serve(ctx context.Context, cfg Config) error {
	if cfg.Listen == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Listen).Msg("Metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
