// Package fingerprint canonicalizes an inbound mutation request into a
// stable digest used to detect idempotency-key reuse with a materially
// different request body. It is written as a small, pure, stdlib-only
// transform in the idiom of this codebase's validated value-object
// helpers, since no ecosystem canonical-JSON library is wired elsewhere
// in this module.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Compute produces the canonical fingerprint for a request: the HTTP
// method (uppercased), the request path, and the canonicalized JSON body,
// joined and hashed with SHA-256. Two requests that differ only in JSON
// object key order or insignificant whitespace fingerprint identically;
// any other difference in the body produces a different fingerprint.
func Compute(method, path string, body []byte) (string, error) {
	canonicalBody, err := Canonicalize(body)
	if err != nil {
		return "", fmt.Errorf("canonicalize request body: %w", err)
	}

	material := strings.ToUpper(method) + "|" + path + "|" + canonicalBody
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize decodes arbitrary JSON and re-encodes it with object keys
// sorted and array order preserved, producing a stable byte-for-byte
// representation regardless of how the original body was serialized. An
// empty or absent body canonicalizes to "null". Numbers are decoded via
// json.Number rather than float64 so an amount outside float64's 53-bit
// mantissa round-trips through the canonical form unchanged instead of
// colliding with a different large integer.
func Canonicalize(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		trimmed = "null"
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	decoder.UseNumber()

	var decoded interface{}
	if err := decoder.Decode(&decoded); err != nil {
		return "", fmt.Errorf("invalid JSON body: %w", err)
	}

	var buf strings.Builder
	if err := writeCanonical(&buf, decoded); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeCanonical(buf *strings.Builder, value interface{}) error {
	switch v := value.(type) {
	case map[string]interface{}:
		return writeCanonicalObject(buf, v)
	case []interface{}:
		return writeCanonicalArray(buf, v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

func writeCanonicalObject(buf *strings.Builder, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeCanonicalArray(buf *strings.Builder, arr []interface{}) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, elem); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
