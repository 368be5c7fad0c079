package indicator

import (
	"encoding/base32"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// onionSuffix is the TLD of onion service addresses.
	onionSuffix = ".onion"

	// onionV3Version is the version byte of v3 addresses.
	onionV3Version = 0x03

	// checksumPrefix is hashed in front of the public key.
	checksumPrefix = ".onion checksum"
)

// IsValidOnionV3 reports whether address is a v3 onion address with a
// correct checksum. The address must include the ".onion" suffix.
func IsValidOnionV3(address string) bool {
	address = strings.ToLower(address)
	host, ok := strings.CutSuffix(address, onionSuffix)
	if !ok || len(host) != 56 {
		return false
	}

	// 32 bytes public key, 2 bytes checksum, 1 byte version.
	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(host))
	if err != nil || len(decoded) != 35 {
		return false
	}

	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}

	expected := onionChecksum(pubkey, version)
	return checksum[0] == expected[0] && checksum[1] == expected[1]
}

// onionChecksum returns SHA3-256(".onion checksum" || pubkey || version)[:2].
func onionChecksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)

	hash := sha3.Sum256(data)
	return hash[:2]
}
