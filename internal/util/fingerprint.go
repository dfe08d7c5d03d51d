package util

import (
	"fmt"
	"hash/crc32"

	"github.com/bytedance/sonic"
)

// Fingerprint returns a canonical serialization of v usable as a cache key.
// Map keys are sorted so structurally equal values produce equal keys.
func Fingerprint(v interface{}) (string, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return string(data), nil
}

// ShortFingerprint returns a CRC32 digest of a fingerprint for log output.
func ShortFingerprint(fingerprint string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(fingerprint)))
}
