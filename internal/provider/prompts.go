package provider

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

var identifyPrompt = dedent.Dedent(`
	Analyze these images and identify the physical item shown. The images show
	the same item, possibly from different angles - use all of them together.

	Respond in JSON format with these fields:
	- item_name: A specific name for the item, including brand and model when visible
	- category: One of: electronics, vehicles, books, collectibles, clothing, furniture, tools, jewelry, sports, other
	- condition: Estimated condition (new, like new, good, fair, poor)
	- brand: The brand name if identifiable (empty string if unknown)
	- model: The model name or number if identifiable (empty string if unknown)
	- serial: Any visible serial number, VIN, or ISBN (empty string if none)
	- confidence: How confident you are in the identification, 0.0 to 1.0

	Example response:
	{"item_name": "Logitech G Pro X Superlight wireless mouse", "category": "electronics", "condition": "good", "brand": "Logitech", "model": "G Pro X Superlight", "serial": "", "confidence": 0.9}

	Respond ONLY with the JSON object, no markdown or other text.`)

var reasonPromptTemplate = dedent.Dedent(`
	You are valuing a secondhand item for resale. Base your estimate on the
	market evidence below. Do not invent prices that the evidence cannot
	support; if evidence is thin, lower your confidence instead.

	Item: %s
	Category: %s
	Condition: %s
	%s
	Market evidence:
	%s

	Respond in JSON format with these fields:
	- decision: "BUY" if acquiring this item for resale is worthwhile, otherwise "SELL"
	- estimated_value: Your resale value estimate in USD (number, no currency symbol)
	- confidence: How confident you are in the estimate, 0.0 to 1.0
	- reasoning: One or two sentences explaining the estimate

	Example response:
	{"decision": "BUY", "estimated_value": 45.50, "confidence": 0.75, "reasoning": "Recent listings cluster around $45 and the item is in good condition."}

	Respond ONLY with the JSON object, no markdown or other text.`)

var validatePromptTemplate = dedent.Dedent(`
	You are sanity-checking a valuation produced by other models. Do NOT
	produce your own price. Flag anomalies only.

	Item: %s
	Consensus decision: %s
	Consensus value: $%.2f
	Consensus confidence: %.0f/100

	Market evidence:
	%s

	Check for:
	- a consensus value far from the market median
	- a decision inconsistent with the price
	- a price implausible for the category

	Respond in JSON format with these fields:
	- valid: true if the consensus looks sane, false otherwise
	- flags: array of {"severity": "warning"|"error", "code": short_snake_case_code, "message": explanation}, empty if nothing is wrong
	- confidence: How confident you are in this review, 0.0 to 1.0

	Example response:
	{"valid": false, "flags": [{"severity": "error", "code": "far_from_median", "message": "Consensus $400 is 8x the market median of $50."}], "confidence": 0.8}

	Respond ONLY with the JSON object, no markdown or other text.`)

// IdentifyPrompt returns the prompt used by the identify stage.
func IdentifyPrompt() string {
	return strings.TrimSpace(identifyPrompt)
}

// ReasonPrompt builds the evidence-grounded valuation prompt.
func ReasonPrompt(itemName, category, condition, userContext, evidence string) string {
	extra := ""
	if userContext != "" {
		extra = fmt.Sprintf("Seller notes: %s\n", userContext)
	}
	return strings.TrimSpace(fmt.Sprintf(reasonPromptTemplate, itemName, category, condition, extra, evidence))
}

// ValidatePrompt builds the sanity-check prompt for the validate stage.
func ValidatePrompt(itemName, decision string, value, confidence float64, evidence string) string {
	return strings.TrimSpace(fmt.Sprintf(validatePromptTemplate, itemName, decision, value, confidence, evidence))
}
