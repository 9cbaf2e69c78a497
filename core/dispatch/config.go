package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// OpTimeoutSeconds bounds every dispatch operation against the store.
	OpTimeoutSeconds int `json:"op_timeout_seconds"`
	// SweepIntervalSeconds sets how often self-heal scans for orphaned
	// BUSY responders.
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
	// DefaultFare is recorded on completed-trip entries.
	DefaultFare float64 `json:"default_fare"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.OpTimeoutSeconds <= 0 {
		c.OpTimeoutSeconds = 10
	}
	if c.SweepIntervalSeconds <= 0 {
		c.SweepIntervalSeconds = 30
	}
	if c.DefaultFare <= 0 {
		c.DefaultFare = 500
	}
}
