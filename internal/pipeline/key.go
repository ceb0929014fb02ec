package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// defaultSecretHeaders are the credential-bearing header names redacted
// inside cache/dedupe keys.
func defaultSecretHeaders() []string {
	return []string{"authorization", "x-api-key", "api-key", "x-goog-api-key"}
}

// CanonicalKey builds the readable canonical form of a request identity:
// provider|METHOD|url|sorted headers|body. Secret header values are replaced
// by a length-only placeholder, so keys never embed credentials but still
// change when the credential in effect changes.
func CanonicalKey(provider string, req *Request, secretHeaders []string) string {
	secret := make(map[string]bool, len(secretHeaders))
	for _, name := range secretHeaders {
		secret[strings.ToLower(name)] = true
	}

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(provider)
	sb.WriteByte('|')
	sb.WriteString(strings.ToUpper(req.Method))
	sb.WriteByte('|')
	sb.WriteString(req.URL)
	sb.WriteByte('|')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		value := strings.Join(req.Header.Values(name), ",")
		if secret[name] {
			value = fmt.Sprintf("len:%d", len(value))
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
	}
	sb.WriteByte('|')
	sb.Write(req.Body)

	return sb.String()
}

// requestKey hashes the canonical form for use as a map key.
func (p *Pipeline) requestKey(req *Request) string {
	sum := sha256.Sum256([]byte(CanonicalKey(p.provider, req, p.secrets)))
	return hex.EncodeToString(sum[:])
}
