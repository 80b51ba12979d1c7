package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfigPath points at the config file to load.  It is read before the config itself is loaded.
const EnvConfigPath = "VPLUG_CONFIG_PATH"

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes
		name:  EnvConfigPath,
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {},
	},
	{
		name:  "VPLUG_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "VPLUG_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional mpv arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name:  "VPLUG_CONFIG_PLAYER_SOCKET_PATH",
		desc:  "Sets the mpv IPC socket or named pipe.  Default: OS-specific, unique per run",
		apply: func(c *Config, s string) { c.Player.SocketPath = s },
	},
	{
		name: "VPLUG_CONFIG_PLAYER_VOLUME",
		desc: "Sets the initial volume percentage, 0 to 100.  Default: 100",
		apply: func(c *Config, s string) {
			if v, err := strconv.Atoi(s); err == nil {
				c.Player.Volume = v
			}
		},
	},
	{
		name:  "VPLUG_CONFIG_PLAYER_MUTED",
		desc:  "Starts playback muted when true.  Default: false",
		apply: func(c *Config, s string) { c.Player.Muted = parseBool(s) },
	},
	{
		name: "VPLUG_CONFIG_PLAYER_START_DELAY",
		desc: "Sets the delay before a non-accelerated start, e.g. 2s.  Default: 2s",
		apply: func(c *Config, s string) {
			if d, err := time.ParseDuration(s); err == nil {
				c.Player.StartDelay = d
			}
		},
	},
	{
		name: "VPLUG_CONFIG_PLAYER_UPDATE_INTERVAL",
		desc: "Sets how often playback position is polled, e.g. 500ms.  Default: 1s",
		apply: func(c *Config, s string) {
			if d, err := time.ParseDuration(s); err == nil {
				c.Player.UpdateInterval = d
			}
		},
	},
	{
		name:  "VPLUG_CONFIG_PLUGIN_URL",
		desc:  "Sets the media URL used when none is given on the command line.  Default: None",
		apply: func(c *Config, s string) { c.Plugin.URL = s },
	},
	{
		name:  "VPLUG_CONFIG_PLUGIN_DISABLE_DEBUG_EVENTS",
		desc:  "Stops tracing of every media element event when true.  Default: false",
		apply: func(c *Config, s string) { c.Plugin.DisableDebugEvents = parseBool(s) },
	},
	{
		name:  "VPLUG_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "VPLUG_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}

// EnvHelp returns one line per supported environment variable
func EnvHelp() string {
	var b strings.Builder
	for _, envVar := range supportedEnvVars {
		b.WriteString(envVar.name + ": " + envVar.desc + "\n")
	}
	return b.String()
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}
