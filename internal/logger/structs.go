package logger

// Console writes to stdout (debug, info) and stderr (the rest).
type Console struct {
	Enabled          bool
	UseConsoleWriter bool // human readable output instead of JSON lines
}

// Rotation holds the lumberjack limits of one log file.
type Rotation struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// LogFile names the rolling files below Path. AccessLog is used by the fiber adapter.
type LogFile struct {
	Enabled bool
	Path    string

	AccessLog string   `mapstructure:"access"`
	Access    Rotation `mapstructure:"accessrotation"`

	ErrorLog string   `mapstructure:"error"`
	Error    Rotation `mapstructure:"errorrotation"`

	InfoLog string   `mapstructure:"info"`
	Info    Rotation `mapstructure:"inforotation"`

	TraceLog string   `mapstructure:"trace"`
	Trace    Rotation `mapstructure:"tracerotation"`

	WarnLog string   `mapstructure:"warn"`
	Warn    Rotation `mapstructure:"warnrotation"`
}

// Log is the [log] section of the configuration.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.
	LogEnv   string

	// EnableAccessLogToConsole adds stdout to the access log outputs when Console is enabled.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /healthz calls

	AppName     string
	ServiceName string

	Console Console
	File    LogFile
}
