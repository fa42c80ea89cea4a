package assistant

import (
	"strings"

	"golang.org/x/text/cases"
)

// Destination is a page the assistant can switch to.
type Destination string

const (
	DestExams        Destination = "exams"
	DestAptitudeTest Destination = "aptitude-test"
	DestCareerForm   Destination = "career-form"
)

var intents = []string{"take me to", "navigate", "go to"}

// Destinations are checked in order; the first keyword match wins.
var destinations = []struct {
	keywords []string
	dest     Destination
	reply    string
}{
	{[]string{"exam"}, DestExams, "Navigated to Exam Updates."},
	{[]string{"aptitude", "test"}, DestAptitudeTest, "Navigated to Aptitude Test."},
	{[]string{"career", "form"}, DestCareerForm, "Navigated to Career Form."},
}

// Navigate reports the destination requested by text, if text carries a
// navigation phrase and a known destination keyword.
func Navigate(text string) (Destination, string, bool) {
	folded := cases.Fold().String(text)
	if !containsAny(folded, intents) {
		return "", "", false
	}
	for _, d := range destinations {
		if containsAny(folded, d.keywords) {
			return d.dest, d.reply, true
		}
	}
	return "", "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
