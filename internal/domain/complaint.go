package domain

import "strings"

var complaintKeywords = []string{
	"disappointed", "bad", "terrible", "poor", "worst", "awful",
	"horrible", "complaint", "unhappy", "slow", "rude",
}

// ContainsComplaint does a case-insensitive substring match against the
// negative-sentiment keywords.
func ContainsComplaint(text string) bool {
	low := strings.ToLower(text)
	for _, k := range complaintKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

func ComplaintKeywords() []string {
	out := make([]string, len(complaintKeywords))
	copy(out, complaintKeywords)
	return out
}
