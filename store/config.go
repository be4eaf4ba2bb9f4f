package store

// Config holds configuration for the Store.
type Config struct {
	// TableName is the single-table DynamoDB table holding events,
	// attendees and participants.
	// Default: "symphony_events"
	TableName string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TableName: "symphony_events",
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "symphony_events"
	}
}
