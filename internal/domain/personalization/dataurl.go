package personalization

import (
	"encoding/base64"
	"strings"
)

// DecodeDataURL decodes the base64 payload of a "data:<mime>;base64,<payload>" string.
// Input that is not a decodable data URL reports ok=false; callers treat that
// as "no image" rather than an error.
func DecodeDataURL(s string) (data []byte, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	_, payload, found := strings.Cut(s, ",")
	if !found {
		return nil, false
	}
	return DecodeBase64(payload)
}

// DecodeBase64 decodes standard base64 with or without padding.
func DecodeBase64(payload string) ([]byte, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, false
	}
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, len(data) > 0
	}
	if data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err == nil {
		return data, len(data) > 0
	}
	return nil, false
}

// StripDataURLPrefix returns the part after the first comma, which drops the
// "data:<mime>;base64" prefix. Strings without a comma are returned unchanged.
func StripDataURLPrefix(s string) string {
	if _, payload, found := strings.Cut(s, ","); found {
		return payload
	}
	return s
}
