// Package config handles TOML configuration parsing, validation, and
// defaulting for dhcpcd's per-interface options.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration: global defaults plus one
// If block per managed interface.
type Config struct {
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	LeaseDir    string `toml:"lease_dir"`
	PIDFile     string `toml:"pid_file"`
	MetricsAddr string `toml:"metrics_listen"`
	Interfaces  []If   `toml:"interface"`
}

// If holds the options the message builder, filters, and xid policy
// consume for a single managed interface (the Go form of if_options).
type If struct {
	Name string `toml:"name"`

	// Transaction-id policy.
	XIDHWAddr bool `toml:"xid_hwaddr"`

	// Hostname / FQDN.
	Hostname    string `toml:"hostname"`
	FQDN        bool   `toml:"fqdn"`
	FQDNFlags   int    `toml:"fqdn_flags"`
	VendorClass string `toml:"vendor_class"`
	UserClass   string `toml:"user_class"`
	ClientID    string `toml:"client_id"`

	// Request shaping.
	RequestMask    []int  `toml:"request_options"`
	RequireMask    []int  `toml:"require_options"`
	RequestAddress string `toml:"request_address"`
	Broadcast      bool   `toml:"broadcast"`

	// Filtering.
	Whitelist        []PrefixEntry `toml:"whitelist"`
	Blacklist        []PrefixEntry `toml:"blacklist"`
	PointToPointPeer string        `toml:"point_to_point_peer"`

	// ARP / conflict handling.
	ARPProbe    bool `toml:"arp_probe"`
	ARPAnnounce bool `toml:"arp_announce"`

	// Fallback behavior.
	IPv4LL bool         `toml:"ipv4ll"`
	Static *StaticLease `toml:"static"`

	// Hook script.
	HookScript string `toml:"hook_script"`

	// Retransmission tuning (seconds); zero means use the package defaults.
	InitialInterval int `toml:"initial_interval"`
	MaxInterval     int `toml:"max_interval"`
}

// PrefixEntry is a (prefix, mask) pair used by the black/white list filter.
type PrefixEntry struct {
	Prefix string `toml:"prefix"`
	Mask   string `toml:"mask"`
}

// StaticLease is a fallback profile bound directly when no server responds.
type StaticLease struct {
	Address string   `toml:"address"`
	Netmask string   `toml:"netmask"`
	Routers []string `toml:"routers"`
}

// Load reads and parses a TOML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LeaseDir == "" {
		cfg.LeaseDir = DefaultLeaseDir
	}
	if cfg.PIDFile == "" {
		cfg.PIDFile = DefaultPIDFile
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = DefaultMetricsAddr
	}

	for i := range cfg.Interfaces {
		iface := &cfg.Interfaces[i]
		if iface.InitialInterval == 0 {
			iface.InitialInterval = DefaultInitialInterval
		}
		if iface.MaxInterval == 0 {
			iface.MaxInterval = DefaultMaxInterval
		}
		if iface.FQDN && iface.FQDNFlags == 0 {
			iface.FQDNFlags = DefaultFQDNFlags
		}
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	seen := make(map[string]bool)
	for i, iface := range cfg.Interfaces {
		if iface.Name == "" {
			return fmt.Errorf("interface[%d]: name is required", i)
		}
		if seen[iface.Name] {
			return fmt.Errorf("interface[%d]: duplicate interface %q", i, iface.Name)
		}
		seen[iface.Name] = true

		if iface.RequestAddress != "" && net.ParseIP(iface.RequestAddress) == nil {
			return fmt.Errorf("interface[%d].request_address %q is not a valid IP", i, iface.RequestAddress)
		}
		if iface.PointToPointPeer != "" && net.ParseIP(iface.PointToPointPeer) == nil {
			return fmt.Errorf("interface[%d].point_to_point_peer %q is not a valid IP", i, iface.PointToPointPeer)
		}
		for j, e := range iface.Whitelist {
			if err := validatePrefixEntry(e); err != nil {
				return fmt.Errorf("interface[%d].whitelist[%d]: %w", i, j, err)
			}
		}
		for j, e := range iface.Blacklist {
			if err := validatePrefixEntry(e); err != nil {
				return fmt.Errorf("interface[%d].blacklist[%d]: %w", i, j, err)
			}
		}
		if iface.Static != nil {
			if net.ParseIP(iface.Static.Address) == nil {
				return fmt.Errorf("interface[%d].static.address %q is not a valid IP", i, iface.Static.Address)
			}
			if net.ParseIP(iface.Static.Netmask) == nil {
				return fmt.Errorf("interface[%d].static.netmask %q is not a valid IP", i, iface.Static.Netmask)
			}
		}
		if iface.InitialInterval <= 0 {
			return fmt.Errorf("interface[%d].initial_interval must be positive", i)
		}
		if iface.MaxInterval < iface.InitialInterval {
			return fmt.Errorf("interface[%d].max_interval must be >= initial_interval", i)
		}
	}
	return nil
}

func validatePrefixEntry(e PrefixEntry) error {
	if net.ParseIP(e.Prefix) == nil {
		return fmt.Errorf("invalid prefix %q", e.Prefix)
	}
	if net.ParseIP(e.Mask) == nil {
		return fmt.Errorf("invalid mask %q", e.Mask)
	}
	return nil
}

// InitialIntervalDuration returns the interface's initial retransmit
// interval as a time.Duration.
func (i *If) InitialIntervalDuration() time.Duration {
	return time.Duration(i.InitialInterval) * time.Second
}

// MaxIntervalDuration returns the interface's retransmit interval ceiling
// as a time.Duration.
func (i *If) MaxIntervalDuration() time.Duration {
	return time.Duration(i.MaxInterval) * time.Second
}
