package responder

import "strings"

// escalationPhrases are the opt-out phrases that route a conversation
// straight to a human, skipping generation entirely.
var escalationPhrases = []string{
	"talk to support",
	"talk to human",
	"talk human",
	"skip ai",
}

// IsEscalationRequest reports whether text contains an explicit request for
// a human agent. Matching is case-insensitive and substring-based.
func IsEscalationRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
