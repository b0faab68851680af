package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gostation/barcode"
	"gostation/entry"
	"gostation/fixture"
	"gostation/indicator"
	"gostation/logging"
	"gostation/metrics"
	"gostation/mqtt"
	"gostation/reader"
	"gostation/station"
)

var myBuild string

// CLI flags
var (
	cfgFile  string
	logLevel string

	grammarFlag  string
	pnPrefixFlag string
	allowFlag    []string
)

var rootCmd = &cobra.Command{
	Use:   "gostation",
	Short: "Operator data-entry station for manufacturing test benches",
	Long: `gostation asks the operator for their ID, the LOT number and each
device under test, scanned from a label or typed by hand, and runs the
test for every device. At any prompt the operator can enter quit, reboot,
shutdown or signoff.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the station",
	Args:  cobra.NoArgs,
	Run:   runMain,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <label text>",
	Short: "Decode a label with one of the barcode grammars",
	Long: `Decode label text the way the station would and print the fields.

Examples:
  gostation decode "10.00001-02 SN:0002"
  gostation decode --grammar snpin "12345678 4321"
  gostation decode --allow 10.00001 "10.00002 SN 0001"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gostation build %s\n", myBuild)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&cfgFile, "cfg", "gostation.cfg", "Config file")

	decodeCmd.Flags().StringVarP(&grammarFlag, "grammar", "g", "pcba", "Grammar: pcba, serial, snpin")
	decodeCmd.Flags().StringVar(&pnPrefixFlag, "pn-prefix", "", "Part number prefix for the pcba grammar")
	decodeCmd.Flags().StringSliceVar(&allowFlag, "allow", nil, "Accepted part numbers for the pcba grammar")

	rootCmd.AddCommand(runCmd, decodeCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// App holds the station's devices and dependencies.
type App struct {
	cfg       *Config
	input     reader.LineReader
	indicator indicator.Indicator
	fixture   fixture.Fixture
	mqtt      *mqtt.Client
	history   io.WriteCloser
	station   *station.Station
}

func runMain(cmd *cobra.Command, args []string) {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		logging.Init(logLevel)
		log.Fatal().Err(err).Msg("Load config")
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logging.Init(logLevel)
	log.Info().Str("build", myBuild).Str("client_id", cfg.ClientID).Msg("gostation starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Init station")
	}
	defer app.Release()

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics); err != nil {
			log.Error().Err(err).Msg("Metrics listener")
		}
	}()
	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Error().Err(err).Msg("MQTT connect")
		}
	}()

	res, err := app.station.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		log.Info().Err(err).Msg("Input ended")
	case err != nil:
		log.Error().Err(err).Msg("Station stopped")
	default:
		log.Info().Stringer("command", res).Msg("Station stopped")
	}
}

func newApp(cfg *Config) (*App, error) {
	app := &App{cfg: cfg}
	var err error

	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		return nil, fmt.Errorf("init indicator: %w", err)
	}

	app.fixture, err = fixture.New(cfg.Fixture)
	if err != nil {
		app.Release()
		return nil, fmt.Errorf("init fixture: %w", err)
	}

	app.input, err = reader.New(cfg.Reader, os.Stdout)
	if err != nil {
		app.Release()
		return nil, fmt.Errorf("init reader: %w", err)
	}

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect:    func() { metrics.MQTTConnected.Set(1) },
		OnDisconnect: func() { metrics.MQTTConnected.Set(0) },
	})
	if err != nil {
		app.Release()
		return nil, fmt.Errorf("init MQTT: %w", err)
	}

	var historyOut io.Writer
	if cfg.HistoryFile != "" {
		f, err := os.OpenFile(cfg.HistoryFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			app.Release()
			return nil, fmt.Errorf("open history file: %w", err)
		}
		app.history = f
		historyOut = f
	}

	out := logging.NewConsole(os.Stdout, "station")
	history := logging.NewConsole(historyOut, "history")
	filter, err := station.NewCommandFilter(cfg.Station.Commands, out, history)
	if err != nil {
		app.Release()
		return nil, err
	}

	ctrl, err := entry.New(app.input, filter, out, cfg.Entry)
	if err != nil {
		app.Release()
		return nil, err
	}

	app.station, err = station.New(ctrl, out, cfg.Station, station.Options{
		Indicator: app.indicator,
		Fixture:   app.fixture,
		Events:    app.mqtt,
		History:   history,
		Handlers: station.Handlers{
			Reboot:   powerCommand(cfg.RebootCommand),
			Shutdown: powerCommand(cfg.ShutdownCommand),
		},
	})
	if err != nil {
		app.Release()
		return nil, err
	}
	return app, nil
}

// Release shuts down the devices that were opened.
func (app *App) Release() {
	if app.mqtt != nil {
		app.mqtt.Disconnect()
	}
	if app.input != nil {
		app.input.Close()
	}
	if app.fixture != nil {
		app.fixture.Release()
	}
	if app.indicator != nil {
		app.indicator.Shutdown()
		app.indicator.Release()
	}
	if app.history != nil {
		app.history.Close()
	}
}

func powerCommand(argv []string) func() error {
	if len(argv) == 0 {
		return nil
	}
	return func() error {
		log.Info().Strs("command", argv).Msg("Running power command")
		out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("run %s: %w (%s)", argv[0], err, strings.TrimSpace(string(out)))
		}
		return nil
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	value := strings.Join(args, " ")

	var m barcode.Match
	switch grammarFlag {
	case "pcba":
		m = barcode.DUT(value, pnPrefixFlag, allowFlag)
	case "serial":
		m = barcode.SerialLabel(value)
	case "snpin":
		m = barcode.SerialPINLabel(value)
	default:
		return fmt.Errorf("unknown grammar %q", grammarFlag)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "code: %s\n", m.Code)
	if !m.OK() && m.Code != barcode.UnknownPartNumber {
		return nil
	}
	for _, f := range []struct{ name, value string }{
		{"pn", m.PartNumber},
		{"rev", m.Revision},
		{"sn", m.SerialNumber},
		{"pin", m.PIN},
	} {
		if f.value != "" {
			fmt.Fprintf(out, "%s: %s\n", f.name, f.value)
		}
	}
	if grammarFlag == "pcba" && m.OK() {
		fmt.Fprintf(out, "id: %s\n", barcode.FormatID("", m))
	}
	return nil
}
