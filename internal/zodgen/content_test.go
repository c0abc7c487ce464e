package zodgen

import "testing"

func TestClassifyContentType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		ct         string
		want       ParseStrategy
		recognized bool
	}{
		{"application/json", StrategyJSON, true},
		{"application/json; charset=utf-8", StrategyJSON, true},
		{"application/hal+json", StrategyJSON, true},
		{"application/vnd.api+json", StrategyJSON, true},
		{"text/json", StrategyJSON, true},
		{"text/plain", StrategyText, true},
		{"text/html", StrategyText, true},
		{"application/xml", StrategyText, true},
		{"application/atom+xml", StrategyText, true},
		{"application/javascript", StrategyText, true},
		{"text/rtf", StrategyBody, true},
		{"image/png", StrategyBody, true},
		{"audio/mpeg", StrategyBody, true},
		{"video/mp4", StrategyBody, true},
		{"application/pdf", StrategyBody, true},
		{"application/zip", StrategyBody, true},
		{"application/octet-stream", StrategyBody, true},
		{"application/x-custom", StrategyJSON, false},
		{"", StrategyJSON, false},
	}
	for _, tc := range cases {
		got := ClassifyContentType(tc.ct, StrategyJSON)
		if got.Strategy != tc.want || got.Recognized != tc.recognized {
			t.Fatalf("ClassifyContentType(%q) = %+v, want strategy=%s recognized=%t", tc.ct, got, tc.want, tc.recognized)
		}
	}
}

func TestClassifyContentType_Fallback(t *testing.T) {
	t.Parallel()
	got := ClassifyContentType("application/x-thing", StrategyBody)
	if got.Strategy != StrategyBody || got.Recognized {
		t.Fatalf("fallback not honored: %+v", got)
	}
}
