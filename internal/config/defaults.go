package config

const (
	defaultDataDir          = "~/.local/share/photoreport"
	defaultLogDir           = "~/.local/share/photoreport/logs"
	defaultDropDir          = "~/.local/share/photoreport/drop"
	defaultStorageBackend   = BackendSQLite
	defaultPreviewMaxSide   = 1800
	defaultPreviewQuality   = 0.85
	defaultPrintMaxSide     = 1800
	defaultPrintQuality     = 0.80
	defaultHEICConverter    = "heif-convert"
	defaultHEICQuality      = 0.9
	defaultPlaceholderSlots = 6
	defaultServerBind       = "127.0.0.1:7488"
	defaultWatchDebounceMS  = 500
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Storage backend names accepted in [storage] backend.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			DropDir: defaultDropDir,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Images: Images{
			PreviewMaxSide: defaultPreviewMaxSide,
			PreviewQuality: defaultPreviewQuality,
			PrintMaxSide:   defaultPrintMaxSide,
			PrintQuality:   defaultPrintQuality,
		},
		HEIC: HEIC{
			Converter: defaultHEICConverter,
			Quality:   defaultHEICQuality,
		},
		Report: Report{
			PlaceholderSlots: defaultPlaceholderSlots,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
