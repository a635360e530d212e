package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dhcpcd.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.LeaseDir != DefaultLeaseDir {
		t.Errorf("LeaseDir = %q, want %q", cfg.LeaseDir, DefaultLeaseDir)
	}
	if len(cfg.Interfaces) != 1 {
		t.Fatalf("got %d interfaces, want 1", len(cfg.Interfaces))
	}
	iface := cfg.Interfaces[0]
	if iface.InitialInterval != DefaultInitialInterval {
		t.Errorf("InitialInterval = %d, want %d", iface.InitialInterval, DefaultInitialInterval)
	}
	if iface.MaxInterval != DefaultMaxInterval {
		t.Errorf("MaxInterval = %d, want %d", iface.MaxInterval, DefaultMaxInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/dhcpcd.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsMissingInterfaceName(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
hostname = "foo"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing interface name")
	}
}

func TestLoadRejectsDuplicateInterface(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"

[[interface]]
name = "eth0"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicate interface")
	}
}

func TestLoadRejectsBadRequestAddress(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"
request_address = "not-an-ip"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid request_address")
	}
}

func TestLoadRejectsBadWhitelistEntry(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"

[[interface.whitelist]]
prefix = "not-an-ip"
mask = "255.255.255.0"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid whitelist prefix")
	}
}

func TestLoadRejectsInvertedInterval(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"
initial_interval = 8
max_interval = 4
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for max_interval < initial_interval")
	}
}

func TestLoadStaticLease(t *testing.T) {
	path := writeTempConfig(t, `
[[interface]]
name = "eth0"

[interface.static]
address = "192.0.2.50"
netmask = "255.255.255.0"
routers = ["192.0.2.1"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	iface := cfg.Interfaces[0]
	if iface.Static == nil {
		t.Fatal("expected static lease config")
	}
	if iface.Static.Address != "192.0.2.50" {
		t.Errorf("Static.Address = %q", iface.Static.Address)
	}
}

func TestIntervalDurations(t *testing.T) {
	iface := If{InitialInterval: 4, MaxInterval: 64}
	if iface.InitialIntervalDuration().Seconds() != 4 {
		t.Errorf("InitialIntervalDuration = %v", iface.InitialIntervalDuration())
	}
	if iface.MaxIntervalDuration().Seconds() != 64 {
		t.Errorf("MaxIntervalDuration = %v", iface.MaxIntervalDuration())
	}
}
