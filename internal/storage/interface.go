package storage

// Provider is a key-value settings store. Values are opaque strings; callers
// own their encoding.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error

	// Utils
	GetConfigPath() string
}
