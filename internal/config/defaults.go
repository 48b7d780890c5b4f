package config

const (
	defaultDataDir           = "~/.local/share/veopm"
	defaultLogDir            = "~/.local/share/veopm/logs"
	defaultVaultAPIBase      = "https://storage.googleapis.com/storage/v1/b"
	defaultVaultUploadBase   = "https://storage.googleapis.com/upload/storage/v1/b"
	defaultRegistryObject    = "registry/world.json"
	defaultGenerationBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultProModel          = "gemini-2.5-pro"
	defaultFlashModel        = "gemini-2.5-flash"
	defaultImageModel        = "gemini-2.5-flash-image"
	defaultVideoModel        = "veo-3.0-generate-001"
	defaultTimeoutSeconds    = 120
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Vault: Vault{
			APIBase:        defaultVaultAPIBase,
			UploadBase:     defaultVaultUploadBase,
			RegistryObject: defaultRegistryObject,
		},
		Generation: Generation{
			BaseURL:        defaultGenerationBaseURL,
			ProModel:       defaultProModel,
			FlashModel:     defaultFlashModel,
			ImageModel:     defaultImageModel,
			VideoModel:     defaultVideoModel,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
