// Package macaddr canonicalises hardware addresses into join keys.
package macaddr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrMalformedAddress is returned when an address is not exactly six hex octets.
var ErrMalformedAddress = errors.New("malformed MAC address")

// Key is the lowercase, colon-delimited six-octet form of a MAC address.
// Two addresses are the same adapter iff their keys are equal.
type Key string

func (k Key) String() string {
	return string(k)
}

// Normalize converts raw into a Key. Colon, hyphen and dotted (xxxx.xxxx.xxxx)
// forms are accepted in any case, as is a bare 12-digit hex string.
func Normalize(raw string) (Key, error) {
	if len(raw) == 12 {
		b, err := hex.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrMalformedAddress, raw)
		}
		return fromBytes(b), nil
	}
	hw, err := net.ParseMAC(raw)
	if err != nil || len(hw) != 6 {
		return "", fmt.Errorf("%w: %q", ErrMalformedAddress, raw)
	}
	return fromBytes(hw), nil
}

func fromBytes(b []byte) Key {
	parts := make([]string, len(b))
	for i, octet := range b {
		parts[i] = fmt.Sprintf("%02x", octet)
	}
	return Key(strings.Join(parts, ":"))
}
