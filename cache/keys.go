package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// maxKeyLength is the longest key stored verbatim.
const maxKeyLength = 250

// Key joins prefix and parts with ':'. Keys longer than 250 characters are
// replaced by prefix + ":" + md5(full key).
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	key := b.String()
	if len(key) > maxKeyLength {
		sum := md5.Sum([]byte(key))
		return prefix + ":" + hex.EncodeToString(sum[:])
	}
	return key
}

// Digest returns the md5 hex of s, used for content-addressed keys.
func Digest(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
