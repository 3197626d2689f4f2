package config

const (
	defaultBaseURL             = "https://pncp.gov.br/api/consulta"
	defaultRequestTimeout      = 90
	defaultMaxRetries          = 5
	defaultRetryBackoffSeconds = 2
	defaultUserAgent           = "pncpx/0.1.0"
	defaultOutputDir           = "~/pncp"
	defaultCheckpointPages     = 50
	defaultOutputFormat        = "both"
	defaultBREncoding          = "utf-8"
	defaultJournalPath         = "~/.local/share/pncpx/journal.db"
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:             defaultBaseURL,
			RequestTimeout:      defaultRequestTimeout,
			MaxRetries:          defaultMaxRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			UserAgent:           defaultUserAgent,
		},
		Output: Output{
			Dir:             defaultOutputDir,
			CheckpointPages: defaultCheckpointPages,
			Format:          defaultOutputFormat,
			BREncoding:      defaultBREncoding,
		},
		Journal: Journal{
			Enabled: true,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
