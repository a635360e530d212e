package config

// Default configuration values.
const (
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultLeaseDir        = "/var/lib/dhcpcd"
	DefaultPIDFile         = "/run/dhcpcd.pid"
	DefaultMetricsAddr     = "127.0.0.1:9167"
	DefaultInitialInterval = 4  // seconds, §4.3 retransmission backoff
	DefaultMaxInterval     = 64 // seconds, §4.3 retransmission backoff ceiling
	DefaultFQDNFlags       = 0x01
)
