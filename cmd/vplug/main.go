package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/PizzaHomicide/vplug/internal/config"
	"github.com/PizzaHomicide/vplug/internal/host"
	"github.com/PizzaHomicide/vplug/internal/log"
	"github.com/PizzaHomicide/vplug/internal/media"
	"github.com/PizzaHomicide/vplug/internal/media/mpv"
	"github.com/PizzaHomicide/vplug/internal/plugin"
	"github.com/PizzaHomicide/vplug/internal/ui/tui"
	"github.com/PizzaHomicide/vplug/internal/version"
)

var (
	app         = kingpin.New("vplug", "Play a video through mpv with a terminal player screen")
	configPath  = app.Flag("config", "Path to config file").Envar(config.EnvConfigPath).String()
	logLevel    = app.Flag("log-level", "Override the configured log level (trace, debug, info, warn, error)").String()
	debugEvents = app.Flag("debug-events", "Log every media lifecycle event").Bool()
	headless    = app.Flag("headless", "Run without the terminal UI until playback ends").Bool()
	source      = app.Arg("source", "Video URL, or a query string such as url=...&title=...").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	app.Version(version.GetVersionInfo())
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	app.Help = "Play a video through mpv with a terminal player screen.\n\n" + config.EnvHelp()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if *configPath != "" {
		_ = os.Setenv(config.EnvConfigPath, *configPath)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	// Initialise logger
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Set the default global logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up vplug", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	params, err := buildParams(*source, cfg.Plugin.URL)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid source: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, params); err != nil {
		log.Error("vplug failed", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		logger.Close()
		os.Exit(1)
	}

	log.Info("vplug shutting down.  Goodbye!")
}

// buildParams turns the positional argument into plugin parameters.  A query string carrying a url parameter is
// parsed, anything else is the url itself.
func buildParams(arg, fallbackURL string) (plugin.Values, error) {
	var params plugin.Values
	if isQuery(arg) {
		parsed, err := plugin.ParseParams(arg)
		if err != nil {
			return nil, err
		}
		params = parsed
	} else {
		params = plugin.Values{}
		if arg != "" {
			params[plugin.ParamURL] = arg
		}
	}

	if params.Get(plugin.ParamURL) == "" && fallbackURL != "" {
		params[plugin.ParamURL] = fallbackURL
	}
	return params, nil
}

// isQuery reports whether arg is a parameter query string rather than a media url or path
func isQuery(arg string) bool {
	if strings.HasPrefix(arg, "?") {
		return true
	}
	if u, err := url.Parse(arg); err == nil && (u.Scheme != "" || u.Host != "") {
		return false
	}
	query, err := url.ParseQuery(arg)
	if err != nil {
		// Still a query if it names the url parameter, so the parse error is reported
		return strings.HasPrefix(arg, plugin.ParamURL+"=")
	}
	return query.Has(plugin.ParamURL)
}

func run(cfg *config.Config, params plugin.Values) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := mpv.NewPlayer(cfg.Player)
	if err := player.Start(ctx); err != nil {
		return err
	}
	defer player.Close()

	ctrl := host.NewController(cfg.Player)
	withDebugEvents := *debugEvents || !cfg.Plugin.DisableDebugEvents
	adapter := plugin.NewAdapter(func() media.Element { return player }, ctrl, params, withDebugEvents)
	ctrl.SetupPlayer(adapter)

	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Warn("Failed to close controller", "error", err)
		}
	}()

	if err := ctrl.Init(); err != nil {
		return err
	}

	go ctrl.Run(ctx)
	go func() {
		select {
		case <-player.Exited():
			log.Info("mpv exited, stopping playback")
			ctrl.StopPlayback()
		case <-ctrl.Done():
		}
	}()

	title := params.Get("title")
	if title == "" {
		title = params.Get(plugin.ParamURL)
	}

	if *headless {
		return waitHeadless(ctx, ctrl)
	}
	return tui.Run(ctrl, title)
}

// waitHeadless blocks until playback ends, the process is interrupted or playback cannot go on
func waitHeadless(ctx context.Context, ctrl *host.Controller) error {
	updates := ctrl.Subscribe()
	if err := headlessFailure(ctrl.Status()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted, stopping playback")
			return nil
		case <-ctrl.Done():
			return nil
		case status := <-updates:
			if err := headlessFailure(status); err != nil {
				return err
			}
		}
	}
}

// headlessFailure returns an error for statuses nothing will recover from: a reported error, or a warning while
// stopped with nothing loading, such as a missing url
func headlessFailure(status host.Status) error {
	switch {
	case status.Message.Severity == host.SeverityError:
		return fmt.Errorf("playback failed: %s", status.Message.Text)
	case status.Message.Severity == host.SeverityWarn && status.State == plugin.StateStopped && !status.Loading:
		return fmt.Errorf("playback cannot start: %s", status.Message.Text)
	}
	return nil
}
