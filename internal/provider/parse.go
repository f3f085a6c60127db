package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseAnalysis normalizes raw model output into an Analysis. Models are
// prompted to respond with a bare JSON object but routinely wrap it in
// markdown fences, so those are stripped first. A response that still does
// not parse is a hard failure for that provider call.
func parseAnalysis(providerName, text string) (*Analysis, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var a Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, &ParseError{Provider: providerName, Raw: text, Err: err}
	}

	normalizeAnalysis(&a)

	if err := checkAnalysis(&a); err != nil {
		return nil, &ParseError{Provider: providerName, Raw: text, Err: err}
	}

	return &a, nil
}

// normalizeAnalysis rescales and canonicalizes fields in place. Confidence
// is stored internally on the 0..1 scale; models sometimes answer on 0..100.
func normalizeAnalysis(a *Analysis) {
	if a.Confidence > 1 {
		a.Confidence = a.Confidence / 100
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 1 {
		a.Confidence = 1
	}
	// Zero means "no usable value"; a negative value is the same signal.
	if a.EstimatedValue < 0 {
		a.EstimatedValue = 0
	}
	a.Decision = strings.ToUpper(strings.TrimSpace(a.Decision))
	for i := range a.Flags {
		a.Flags[i].Severity = strings.ToLower(strings.TrimSpace(a.Flags[i].Severity))
	}
}

func checkAnalysis(a *Analysis) error {
	switch a.Decision {
	case "", "BUY", "SELL":
	default:
		return fmt.Errorf("unrecognized decision %q", a.Decision)
	}
	return nil
}
