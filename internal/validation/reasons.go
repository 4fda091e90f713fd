package validation

// Reason is a stable machine-readable rejection reason. The boundary layer
// maps these straight into 4xx responses; they never change shape based on
// upstream error text.
type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonWhitespace Reason = "whitespace"
	ReasonControl    Reason = "control_chars"
	ReasonNonASCII   Reason = "non_ascii"
	ReasonScheme     Reason = "bad_scheme"
	ReasonBadQuery   Reason = "bad_query"
	ReasonMissingXT  Reason = "missing_xt"
	ReasonNotBTIH    Reason = "not_btih"
	ReasonBadLength  Reason = "bad_length"
	ReasonBadCharset Reason = "bad_charset"

	ReasonNotHTTP       Reason = "not_http"
	ReasonUnknownHost   Reason = "unknown_host"
	ReasonNoVideoID     Reason = "no_video_id"
	ReasonBadVideoID    Reason = "bad_video_id"
	ReasonUnsafeURL     Reason = "unsafe_url"
	ReasonUnrecognized  Reason = "unrecognized_input"
	ReasonNoMagnetFound Reason = "no_magnet_on_page"
)

// Strings converts reasons for logging and API payloads.
func Strings(reasons []Reason) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		out = append(out, string(r))
	}
	return out
}
