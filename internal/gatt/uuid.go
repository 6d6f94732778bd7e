package gatt

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// UUIDSize is the size of a full 128-bit UUID in bytes.
const UUIDSize = 16

// baseUUIDSuffix is the tail shared by all Bluetooth SIG assigned UUIDs
// (0000xxxx-0000-1000-8000-00805F9B34FB).
var baseUUIDSuffix = [12]byte{
	0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
}

// UUID is a 128-bit attribute identifier stored most-significant byte first.
//
// On the TNP wire a UUID travels byte-reversed across all 16 bytes; that
// reversal lives in the tnp codec, never here. The Mirror and everything
// above it only ever see this canonical ordering.
type UUID [UUIDSize]byte

// ParseUUID parses a textual UUID in the standard
// XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX form (case-insensitive, dashes
// optional).
func ParseUUID(s string) (UUID, error) {
	var u UUID
	cleaned := strings.ReplaceAll(s, "-", "")
	if len(cleaned) != UUIDSize*2 {
		return u, fmt.Errorf("invalid UUID %q: want 32 hex digits, got %d", s, len(cleaned))
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return u, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	copy(u[:], b)
	return u, nil
}

// MustParseUUID parses a textual UUID and panics on failure. For use with
// compile-time constants only.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// UUID16 expands a 16-bit Bluetooth SIG short UUID to its full 128-bit form.
func UUID16(short uint16) UUID {
	var u UUID
	u[2] = byte(short >> 8)
	u[3] = byte(short)
	copy(u[4:], baseUUIDSuffix[:])
	return u
}

// String returns the canonical dashed lowercase representation.
func (u UUID) String() string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", u[0:4], u[4:6], u[6:8], u[8:10], u[10:16])
}

// IsShort reports whether the UUID is a Bluetooth SIG base UUID, i.e. whether
// it has a 16-bit short form.
func (u UUID) IsShort() bool {
	if u[0] != 0 || u[1] != 0 {
		return false
	}
	for i, b := range baseUUIDSuffix {
		if u[4+i] != b {
			return false
		}
	}
	return true
}

// Short16 returns the 16-bit short form of a Bluetooth SIG base UUID and
// whether one exists.
func (u UUID) Short16() (uint16, bool) {
	if !u.IsShort() {
		return 0, false
	}
	return uint16(u[2])<<8 | uint16(u[3]), true
}

// ShortString returns the 4-character uppercase hex short form used in mDNS
// TXT records (e.g. "FC82"). For UUIDs outside the Bluetooth base range it
// falls back to the full canonical form.
func (u UUID) ShortString() string {
	if short, ok := u.Short16(); ok {
		return fmt.Sprintf("%04X", short)
	}
	return strings.ToUpper(u.String())
}
