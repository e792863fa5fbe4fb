package config

const (
	defaultDataDir             = "~/.local/share/nucliasync"
	defaultLogDir              = "~/.local/share/nucliasync/logs"
	defaultAPIBind             = "127.0.0.1:7491"
	defaultAPIHost             = "rag.progress.cloud"
	defaultRequestTimeout      = 20
	defaultStreamTimeout       = 60
	defaultWorkers             = 2
	defaultMaxAttempts         = 5
	defaultRetryBackoffSeconds = 30
	defaultStaggerSeconds      = 2
	defaultPageSize            = 500
	defaultLanguage            = "en"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultQueuePollInterval   = 5
	defaultErrorRetryInterval  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Nuclia: Nuclia{
			APIHost:        defaultAPIHost,
			RequestTimeout: defaultRequestTimeout,
		},
		Indexing: Indexing{
			ContentTypes:        []string{"post", "page"},
			Workers:             defaultWorkers,
			MaxAttempts:         defaultMaxAttempts,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			StaggerSeconds:      defaultStaggerSeconds,
			PageSize:            defaultPageSize,
			Language:            defaultLanguage,
		},
		Proxy: Proxy{
			Enabled:       true,
			StreamTimeout: defaultStreamTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
