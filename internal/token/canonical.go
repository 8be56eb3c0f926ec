package token

import (
	"sort"
	"strconv"
	"strings"
)

// Payload is the set of fields covered by a token. Values are already in
// wire form; use FormatBool/FormatFloat to match the encoding the quiz
// service computes on its side.
type Payload map[string]string

// CanonicalMessage builds the exact HMAC input: the action name, "?", then
// the payload fields sorted by key and percent-encoded per RFC 3986, joined
// with "&". This string must be byte-identical on both ends of the protocol.
func CanonicalMessage(action Action, payload Payload) string {
	return string(action) + "?" + CanonicalQuery(payload)
}

// CanonicalQuery encodes payload as a sorted RFC 3986 query string.
func CanonicalQuery(payload Payload) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(payload[k]))
	}
	return b.String()
}

// FormatBool renders a boolean the way the wire protocol expects it.
func FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// FormatFloat renders a score without a trailing ".0" for whole values, so
// 80 and 80.5 round-trip identically on both sides.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escape percent-encodes per RFC 3986: unreserved characters pass through,
// space becomes %20 (never "+"), everything else is %XX uppercase hex.
func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') ||
		('0' <= c && c <= '9') || c == '-' || c == '_' || c == '.' || c == '~'
}
