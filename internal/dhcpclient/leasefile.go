package dhcpclient

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcingel/dhcpcd/pkg/dhcpv4"
)

// LeaseFilePath returns the on-disk path for iface's lease file under dir.
func LeaseFilePath(dir, iface string) string {
	return filepath.Join(dir, iface+".lease")
}

// WriteLeaseFile truncate-writes m's raw bytes up to and including its END
// option to path with mode 0444, per §4.5. Callers must not call this for a
// BOOTP-derived message; use DeleteLeaseFile instead.
func WriteLeaseFile(path string, m *dhcpv4.Message) error {
	raw := m.Encode()
	if end := dhcpv4.EndOffset(m.Options); end >= 0 {
		raw = raw[:dhcpv4.FixedHeaderSize+dhcpv4.CookieSize+end]
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale lease file %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0444); err != nil {
		return fmt.Errorf("writing lease file %s: %w", path, err)
	}
	return nil
}

// DeleteLeaseFile removes path, tolerating its absence.
func DeleteLeaseFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lease file %s: %w", path, err)
	}
	return nil
}

// ReadLeaseFile reads up to MaxPacketSize bytes from path and decodes them
// as a DhcpMessage; a short read is tolerated (the data is zero-padded to
// dhcpv4.MinDecodeSize before Decode, so missing fixed fields read as zero
// and the options parser simply halts at the truncation point). It returns the message, the file's modification time, and
// whether it was found at all.
func ReadLeaseFile(path string) (m *dhcpv4.Message, mtime time.Time, found bool, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("stat lease file %s: %w", path, statErr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("reading lease file %s: %w", path, err)
	}
	if len(data) > dhcpv4.MaxPacketSize {
		data = data[:dhcpv4.MaxPacketSize]
	}
	if len(data) < dhcpv4.MinDecodeSize {
		padded := make([]byte, dhcpv4.MinDecodeSize)
		copy(padded, data)
		data = padded
	}

	decoded, decErr := dhcpv4.Decode(data)
	if decErr != nil {
		return nil, time.Time{}, false, fmt.Errorf("decoding lease file %s: %w", path, decErr)
	}
	return decoded, info.ModTime(), true, nil
}

// IsStale reports whether a lease with the given leasetime (in seconds),
// last written at mtime, has already expired as of now. An infinite lease
// is never stale.
func IsStale(mtime time.Time, leaseTime uint32, now time.Time) bool {
	if leaseTime == dhcpv4.InfiniteLease {
		return false
	}
	expiry := mtime.Add(time.Duration(leaseTime) * time.Second)
	return now.After(expiry)
}

// RemainingLease returns how much of leaseTime is left as of now, given the
// lease was last written at mtime. Negative results are clamped to zero.
func RemainingLease(mtime time.Time, leaseTime uint32, now time.Time) time.Duration {
	if leaseTime == dhcpv4.InfiniteLease {
		return time.Duration(dhcpv4.InfiniteLease) * time.Second
	}
	expiry := mtime.Add(time.Duration(leaseTime) * time.Second)
	remaining := expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
