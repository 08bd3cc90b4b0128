package ranking

// DefaultFallbackLimit is how many top candidates are returned when none meet the threshold.
const DefaultFallbackLimit = 10

// Config holds ranking parameters.
type Config struct {
	FallbackLimit int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{FallbackLimit: DefaultFallbackLimit}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.FallbackLimit <= 0 {
		c.FallbackLimit = DefaultFallbackLimit
	}
}
