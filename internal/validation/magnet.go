// Package validation classifies and validates submitted identifiers:
// magnet URIs, YouTube URLs and plain web-page URLs. All functions are
// pure; no network access happens here.
package validation

import (
	"encoding/base32"
	"encoding/hex"
	"net/url"
	"strings"
)

const btihPrefix = "urn:btih:"

// HashEncoding names the encoding the BTIH hash was submitted in. The
// stored info hash is always the canonical Base16 form.
type HashEncoding string

const (
	EncodingBase16 HashEncoding = "base16"
	EncodingBase32 HashEncoding = "base32"
)

// MagnetResult is the outcome of validating a magnet URI.
type MagnetResult struct {
	IsValid     bool         `json:"is_valid"`
	InfoHash    string       `json:"info_hash,omitempty"`
	Encoding    HashEncoding `json:"encoding,omitempty"`
	DisplayName string       `json:"display_name,omitempty"`
	Trackers    []string     `json:"trackers,omitempty"`
	Errors      []Reason     `json:"errors,omitempty"`
}

var base32Hash = base32.StdEncoding.WithPadding(base32.NoPadding)

// ValidateMagnet validates a raw magnet URI. A valid result carries the
// info hash normalized to 40 lowercase hex characters regardless of the
// submitted encoding.
func ValidateMagnet(input string) MagnetResult {
	if input == "" {
		return MagnetResult{Errors: []Reason{ReasonEmpty}}
	}

	// Control characters and whitespace are a hard rejection before any
	// parsing happens.
	if reasons := scanRawBytes(input); len(reasons) > 0 {
		return MagnetResult{Errors: reasons}
	}

	lower := strings.ToLower(input)
	if !strings.HasPrefix(lower, "magnet:?") {
		return MagnetResult{Errors: []Reason{ReasonScheme}}
	}

	params, err := url.ParseQuery(input[len("magnet:?"):])
	if err != nil {
		return MagnetResult{Errors: []Reason{ReasonBadQuery}}
	}

	result := MagnetResult{Trackers: params["tr"]}
	if dn := params.Get("dn"); dn != "" {
		result.DisplayName = dn
	}

	xtValues := params["xt"]
	if len(xtValues) == 0 || xtValues[0] == "" {
		result.Errors = []Reason{ReasonMissingXT}
		return result
	}

	// The first BTIH-valid xt wins. If none validates, report the first
	// BTIH candidate's specific failure.
	var firstFailure Reason
	sawBTIH := false
	for _, xt := range xtValues {
		if !strings.HasPrefix(strings.ToLower(xt), btihPrefix) {
			continue
		}
		sawBTIH = true
		hash, encoding, reason := decodeInfoHash(xt[len(btihPrefix):])
		if reason == "" {
			result.IsValid = true
			result.InfoHash = hash
			result.Encoding = encoding
			return result
		}
		if firstFailure == "" {
			firstFailure = reason
		}
	}

	if !sawBTIH {
		result.Errors = []Reason{ReasonNotBTIH}
	} else {
		result.Errors = []Reason{firstFailure}
	}
	return result
}

// MagnetURI rebuilds the canonical magnet URI for a valid result: the
// normalized hex hash plus any display name and trackers that were
// submitted.
func MagnetURI(r MagnetResult) string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(r.InfoHash)
	if r.DisplayName != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(r.DisplayName))
	}
	for _, tr := range r.Trackers {
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(tr))
	}
	return b.String()
}

// scanRawBytes reports whitespace, control-character and non-ASCII
// violations anywhere in the raw input.
func scanRawBytes(input string) []Reason {
	var reasons []Reason
	seen := map[Reason]bool{}
	add := func(r Reason) {
		if !seen[r] {
			seen[r] = true
			reasons = append(reasons, r)
		}
	}
	for _, b := range []byte(input) {
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f':
			add(ReasonWhitespace)
		case b < 0x20 || b == 0x7f:
			add(ReasonControl)
		case b > 0x7f:
			add(ReasonNonASCII)
		}
	}
	return reasons
}

// decodeInfoHash validates a BTIH hash value and normalizes it to
// lowercase hex. 40 characters must be hex (Base16); 32 characters must be
// the RFC 4648 Base32 alphabet, accepted case-insensitively and decoded to
// the canonical hex form. Any other length is a length error.
func decodeInfoHash(hash string) (string, HashEncoding, Reason) {
	switch len(hash) {
	case 40:
		raw, err := hex.DecodeString(hash)
		if err != nil {
			return "", "", ReasonBadCharset
		}
		return hex.EncodeToString(raw), EncodingBase16, ""
	case 32:
		upper := strings.ToUpper(hash)
		for _, c := range upper {
			if !(c >= 'A' && c <= 'Z' || c >= '2' && c <= '7') {
				return "", "", ReasonBadCharset
			}
		}
		raw, err := base32Hash.DecodeString(upper)
		if err != nil || len(raw) != 20 {
			return "", "", ReasonBadCharset
		}
		return hex.EncodeToString(raw), EncodingBase32, ""
	default:
		return "", "", ReasonBadLength
	}
}
