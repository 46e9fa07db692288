package utils

import "strings"

// NormalizeHandle strips the optional leading "@" and surrounding whitespace from
// a social media handle. The normalized form is the cache key and the value sent
// upstream, so "@santa" and "santa" always refer to the same account.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")

	return handle
}
