package inspector

import "go.uber.org/zap"

// Config carries the settings shared by every language frontend.
type Config struct {
	// MaxDepth bounds how far call-chain discovery follows nested calls
	// from a file's entry declarations; 0 means unlimited. The bound caps
	// graph expansion, not declaration enumeration.
	MaxDepth int
	// Verbose enables per-construct debug logging.
	Verbose bool
	// StrictImports makes an unresolved external dependency fatal instead
	// of a soft warning.
	StrictImports bool
	// SkipTests excludes test files from discovery.
	SkipTests bool
	// Logger receives per-file diagnostics; nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the lenient defaults.
func DefaultConfig() *Config {
	return &Config{SkipTests: true}
}

// Log returns the configured logger, or a nop one.
func (c *Config) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
