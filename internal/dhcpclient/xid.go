package dhcpclient

import (
	"crypto/rand"
	"encoding/binary"
	"net"
)

// NewXID picks a transaction id per §4.4: the low 4 bytes of the interface
// hardware address if useHWAddr is set and the address is long enough,
// otherwise a fresh value from a cryptographically strong RNG. Called at the
// start of DISCOVER, RELEASE, INFORM, REBOOT, RENEW, and REBIND.
func NewXID(useHWAddr bool, hwaddr net.HardwareAddr) uint32 {
	if useHWAddr && len(hwaddr) >= 4 {
		n := len(hwaddr)
		return binary.BigEndian.Uint32(hwaddr[n-4 : n])
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is fatal to anything relying on it; a zero
		// xid is still a valid (if degenerate) transaction id and lets the
		// caller keep going rather than panic mid state-machine.
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}
