package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/citypulse/client/internal/api"
	"github.com/citypulse/client/internal/config"
	"github.com/citypulse/client/internal/discovery"
	"github.com/citypulse/client/internal/eventloop"
	"github.com/citypulse/client/internal/geolocate"
	"github.com/citypulse/client/internal/influx"
	"github.com/citypulse/client/internal/logging"
	"github.com/citypulse/client/internal/mapview"
	intOtel "github.com/citypulse/client/internal/otel"
	"github.com/citypulse/client/internal/registry"
	"github.com/citypulse/client/internal/session"
	"github.com/citypulse/client/internal/suggest"
	"github.com/citypulse/client/internal/ui"
	"github.com/citypulse/client/pkg/core"
)

const (
	appName     = "citypulse"
	loopSize    = 256
	settleEvery = 25 * time.Millisecond
	mapWidth    = 1280
	mapHeight   = 800
)

// runtime holds the ambient stack shared by every command: config,
// logging, telemetry.
type runtime struct {
	start   time.Time
	slogs   *logging.SlogManager
	logger  *slog.Logger
	zlog    zerolog.Logger
	otel    *intOtel.Provider
	logFile *os.File
	graylog *gelf.Writer
}

func setupRuntime(cmd *cobra.Command) (*runtime, error) {
	rt := &runtime{start: time.Now(), slogs: logging.NewSlogManager()}

	cfgErr := config.Load(configDir)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNotFound) {
		return nil, cfgErr
	}

	level := config.GetString("logLevel")
	var out io.Writer = os.Stderr
	if dir := config.GetString("logsDir"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
		path := logging.LogFilePath(dir, appName, rt.start)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		out = f
	}

	otelCfg := config.GetOTelConfig()
	var err error
	rt.otel, err = intOtel.New(cmd.Context(), intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    out,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
		Command:      cmd.Name(),
		ServerURL:    config.GetString("api.serverUrl"),
	})
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}

	if config.GetBool("graylog.enabled") {
		rt.graylog, err = gelf.NewWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "graylog disabled:", err)
		} else {
			rt.slogs.SetGraylog(rt.graylog)
		}
	}

	command := cmd.Name()
	pid := os.Getpid()
	rt.slogs.SetContext(func() []slog.Attr {
		return []slog.Attr{slog.String("command", command), slog.Int("pid", pid)}
	})

	var file io.Writer
	if rt.logFile != nil {
		file = rt.logFile
	}
	var provider *sdklog.LoggerProvider
	if rt.otel.Enabled() {
		provider = rt.otel.LoggerProvider()
	}
	rt.slogs.Setup(file, level, provider)
	rt.logger = rt.slogs.Logger()

	zl, zerr := zerolog.ParseLevel(level)
	if zerr != nil || level == "" {
		zl = zerolog.InfoLevel
	}
	rt.zlog = zerolog.New(out).Level(zl).With().Timestamp().Str("command", command).Logger()

	if errors.Is(cfgErr, config.ErrNotFound) {
		rt.logger.Info("No config file, using defaults", "dir", configDir)
	}
	return rt, nil
}

func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.slogs.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "log flush:", err)
	}
	for sink, n := range rt.slogs.SinkFailures() {
		fmt.Fprintf(os.Stderr, "log sink %s dropped %d records\n", sink, n)
	}
	if err := rt.otel.Shutdown(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "otel shutdown:", err)
	}
	if rt.graylog != nil {
		_ = rt.graylog.Close()
	}
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}

// app is one headless map session driven from the command line.
type app struct {
	*runtime

	loop    *eventloop.Loop
	surface *ui.Console
	mapv    *mapview.Headless
	client  *api.Client
	sink    *influx.Sink
	sess    *session.Session
}

func newApp(cmd *cobra.Command) (*app, error) {
	rt, err := setupRuntime(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{runtime: rt}

	a.loop, err = eventloop.New(logging.NewLoopLogger(rt.zlog), loopSize)
	if err != nil {
		rt.Close()
		return nil, err
	}

	sc := config.GetSessionConfig()
	fallback := core.LatLng{Lat: sc.FallbackLat, Lng: sc.FallbackLng}
	a.surface = ui.NewConsole(cmd.OutOrStdout(), rt.logger)
	a.mapv = mapview.NewHeadless(mapWidth, mapHeight, fallback, session.DefaultZoom)
	a.client = api.New(config.GetString("api.serverUrl"), config.GetDuration("api.timeout"))

	var sinks []discovery.CycleSink
	ic := config.GetInfluxConfig()
	if ic.Enabled {
		backupDir := ic.BackupDir
		if backupDir == "" {
			backupDir = config.GetString("logsDir")
		}
		backup := filepath.Join(backupDir, fmt.Sprintf("%s.cycles.%s.lp.gz", appName, rt.start.Format("20060102_150405")))
		a.sink, err = influx.Open(cmd.Context(), rt.zlog, ic, backup)
		if err != nil {
			rt.logger.Error("Influx sink unavailable", "error", err)
		} else {
			sinks = append(sinks, a.sink)
		}
	}

	sg := config.GetSuggestConfig()
	suggestCfg := suggest.DefaultConfig()
	suggestCfg.MinChars = sg.MinChars
	suggestCfg.Debounce = sg.Debounce
	suggestCfg.CacheSize = sg.CacheSize
	suggestCfg.CacheTTL = sg.CacheTTL

	a.sess, err = session.New(session.Deps{
		Scheduler:  a.loop,
		Backend:    a.client,
		Map:        a.mapv,
		Surface:    a.surface,
		Geolocator: geolocator(cmd, sc, rt.logger),
		Sinks:      sinks,
		Logger:     rt.logger,
	}, session.Config{
		Fallback:   fallback,
		FitPadding: sc.FitPadding,
		Suggest:    suggestCfg,
		Registry: registry.Options{
			JitterSpan:      sc.JitterSpan,
			AlertJitterSpan: sc.AlertJitter,
		},
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.register()
	a.loop.Start()
	return a, nil
}

func geolocator(cmd *cobra.Command, sc config.SessionConfig, logger *slog.Logger) geolocate.Provider {
	flags := cmd.Flags()
	if flags.Changed("lat") || flags.Changed("lng") {
		return geolocate.Fixed{Lat: lat, Lng: lng}
	}
	if sc.GeoClue {
		return geolocate.GeoClue{DesktopID: sc.DesktopID, Logger: logger}
	}
	return geolocate.Unavailable{}
}

// register maps command line actions onto session operations. Every
// handler runs on the loop goroutine.
func (a *app) register() {
	s := a.sess
	a.loop.Register("start", func(eventloop.Event) error { s.Start(); return nil }, eventloop.Logged())
	a.loop.Register("discover", func(eventloop.Event) error { return s.Discover() }, eventloop.Logged())
	a.loop.Register("search", func(e eventloop.Event) error {
		return s.QuickSearch(arg(e, 0))
	}, eventloop.Logged())
	a.loop.Register("type", func(e eventloop.Event) error { s.Input(arg(e, 0)); return nil })
	a.loop.Register("key", func(e eventloop.Event) error { s.Key(suggest.Key(arg(e, 0))); return nil }, eventloop.Logged())
	a.loop.Register("select", func(e eventloop.Event) error {
		i, err := strconv.Atoi(arg(e, 0))
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		return s.SelectSuggestion(i)
	}, eventloop.Logged())
	a.loop.Register("activate", func(e eventloop.Event) error { return s.ActivateMarker(arg(e, 0)) }, eventloop.Logged())
	a.loop.Register("learn-more", func(e eventloop.Event) error { return s.LearnMore(arg(e, 0)) }, eventloop.Logged())
	a.loop.Register("insights", func(eventloop.Event) error { return s.FetchInsights() }, eventloop.Logged())
	a.loop.Register("share", func(eventloop.Event) error { return s.ShareCurrent() }, eventloop.Logged())
	a.loop.Register("open-shared", func(e eventloop.Event) error { return s.OpenShared(arg(e, 0)) }, eventloop.Logged())
}

func arg(e eventloop.Event, i int) string {
	if i < len(e.Args) {
		return e.Args[i]
	}
	return ""
}

// do dispatches a command and waits for the session to go idle.
func (a *app) do(ctx context.Context, command string, args ...string) error {
	if err := a.loop.Dispatch(eventloop.Event{Command: command, Args: args}); err != nil {
		return err
	}
	return a.settle(ctx)
}

// settle polls the session until no asynchronous work is outstanding.
func (a *app) settle(ctx context.Context) error {
	tick := time.NewTicker(settleEvery)
	defer tick.Stop()
	for {
		var busy bool
		if err := a.loop.Call(func() { busy = a.sess.Busy() }); err != nil {
			return err
		}
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// onLoop runs f on the loop goroutine.
func (a *app) onLoop(f func()) error {
	return a.loop.Call(f)
}

// begin locates the user and waits for the fix or the fallback.
func (a *app) begin(ctx context.Context) error {
	return a.do(ctx, "start")
}

// finish writes the GeoJSON export when requested and tears down.
func (a *app) finish() error {
	var err error
	if geojsonPath != "" {
		err = a.writeGeoJSON(geojsonPath)
	}
	a.Close()
	return err
}

func (a *app) writeGeoJSON(path string) error {
	var b []byte
	var err error
	if cerr := a.onLoop(func() { b, err = a.mapv.GeoJSON() }); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("geojson: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (a *app) Close() {
	if a.loop != nil {
		if a.sess != nil {
			_ = a.loop.Call(a.sess.Close)
		}
		a.loop.Close()
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Error("Influx sink close failed", "error", err)
		}
	}
	a.runtime.Close()
}
