package evidence

import "strings"

// Words that describe condition or marketing rather than the product itself.
// They dilute marketplace search results, so they are stripped from queries.
var queryStopwords = map[string]bool{
	"new": true, "used": true, "mint": true, "good": true, "fair": true,
	"poor": true, "condition": true, "vintage": true, "rare": true,
	"original": true, "authentic": true, "genuine": true, "working": true,
	"tested": true, "excellent": true, "great": true, "nice": true,
	"pro": false, // part of many model names, keep
}

// SearchQuery condenses an identified item name into a short marketplace
// search query: condition and filler words dropped, capped at five words.
func SearchQuery(itemName string) string {
	words := strings.Fields(itemName)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if queryStopwords[strings.ToLower(strings.Trim(w, ",.()"))] {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 5 {
			break
		}
	}
	if len(kept) == 0 {
		return itemName
	}
	return strings.Join(kept, " ")
}
