package config

const (
	defaultDataDir                 = "~/.local/share/fieldsync"
	defaultLogDir                  = "~/.local/share/fieldsync/logs"
	defaultAPIRequestTimeout       = 30
	defaultConnectivityProbeURL    = "https://clients3.google.com/generate_204"
	defaultConnectivityTimeout     = 5
	defaultConnectivityPoll        = 30
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			RequestTimeout: defaultAPIRequestTimeout,
		},
		Connectivity: Connectivity{
			ProbeURL:     defaultConnectivityProbeURL,
			ProbeTimeout: defaultConnectivityTimeout,
			PollInterval: defaultConnectivityPoll,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
