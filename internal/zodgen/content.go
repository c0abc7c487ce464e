package zodgen

import "strings"

// ParseStrategy says how a client should consume a response body with a
// given content type.
type ParseStrategy string

const (
	StrategyJSON ParseStrategy = "json"
	StrategyText ParseStrategy = "text"
	StrategyBody ParseStrategy = "body"
)

// ContentKind is the classification result for one MIME type.
type ContentKind struct {
	Strategy   ParseStrategy
	Recognized bool
}

var jsonContentTypes = map[string]bool{
	"application/json":     true,
	"text/json":            true,
	"application/hal+json": true,
}

var textContentTypes = map[string]bool{
	"application/xml":        true,
	"application/javascript": true,
}

// binaryTextTypes are text/* types that carry binary payloads and must not
// be consumed as text.
var binaryTextTypes = map[string]bool{
	"text/rtf": true,
}

var bodyContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/zip":          true,
	"application/octet-stream": true,
}

// ClassifyContentType maps a MIME type to a parse strategy. Parameter
// suffixes (";charset=...") are stripped before matching. Unrecognized or
// empty content types return the configured fallback with Recognized=false;
// callers are expected to surface a non-fatal warning in that case.
func ClassifyContentType(contentType string, fallback ParseStrategy) ContentKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return ContentKind{Strategy: fallback}
	}

	switch {
	case jsonContentTypes[ct], strings.HasSuffix(ct, "+json"):
		return ContentKind{Strategy: StrategyJSON, Recognized: true}
	case strings.HasPrefix(ct, "text/") && !binaryTextTypes[ct]:
		return ContentKind{Strategy: StrategyText, Recognized: true}
	case textContentTypes[ct], strings.HasSuffix(ct, "+xml"):
		return ContentKind{Strategy: StrategyText, Recognized: true}
	case bodyContentTypes[ct],
		strings.HasPrefix(ct, "image/"),
		strings.HasPrefix(ct, "audio/"),
		strings.HasPrefix(ct, "video/"),
		binaryTextTypes[ct]:
		return ContentKind{Strategy: StrategyBody, Recognized: true}
	default:
		return ContentKind{Strategy: fallback}
	}
}
