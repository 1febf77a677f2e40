// internal/knowledge/intent.go
package knowledge

import "strings"

// IntentResult classifies one chat message. Intent picks the reply
// template family; Topic picks which knowledge subtree the template
// references.
type IntentResult struct {
	Intent string `json:"intent"`
	Topic  string `json:"topic"`
}

const (
	IntentGeneralQuery = "general_query"
	TopicGeneral       = "general"
)

type intentRule struct {
	keywords []string
	intent   string
	topic    string
}

// Rules are evaluated top to bottom; the first rule with any keyword hit
// wins, so declaration order is load-bearing for messages that touch
// several groups ("how much is a sponsor booth" stays a sponsorship
// question).
var intentRules = []intentRule{
	{
		keywords: []string{"sponsor", "sponsorship", "price", "cost", "package", "tier"},
		intent:   "sponsorship_cost",
		topic:    "sponsorship",
	},
	{
		keywords: []string{"exhibit", "booth", "stand"},
		intent:   "exhibitor_info",
		topic:    "exhibitors",
	},
	{
		keywords: []string{"register", "registration", "ticket", "attend", "rsvp"},
		intent:   "registration_info",
		topic:    "tickets",
	},
	{
		keywords: []string{"contact", "email", "phone", "call", "reach"},
		intent:   "contact_info",
		topic:    "contact",
	},
}

type topicRule struct {
	keywords []string
	topic    string
}

// Fallback topic table, consulted only when no intent rule matched.
var topicRules = []topicRule{
	{keywords: []string{"date", "when", "schedule", "time", "day"}, topic: "dates"},
	{keywords: []string{"venue", "where", "location", "address", "parking"}, topic: "venue"},
	{keywords: []string{"speaker", "agenda", "session", "talk", "keynote"}, topic: "agenda"},
}

// DetectIntent maps a raw chat message to an (intent, topic) pair.
// Deterministic, pure, never fails: unmatched messages fall back to
// general_query with a topic inferred from the secondary keyword table.
func DetectIntent(message string) IntentResult {
	lowered := strings.ToLower(message)

	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return IntentResult{Intent: rule.intent, Topic: rule.topic}
			}
		}
	}

	topic := TopicGeneral
outer:
	for _, rule := range topicRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				topic = rule.topic
				break outer
			}
		}
	}

	return IntentResult{Intent: IntentGeneralQuery, Topic: topic}
}

// MatchedKeyword reports which keyword drove the classification, for
// diagnostics in the detect-intent worker output. Empty when the message
// fell through to the general fallback with no topic hit.
func MatchedKeyword(message string) string {
	lowered := strings.ToLower(message)

	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return keyword
			}
		}
	}
	for _, rule := range topicRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return keyword
			}
		}
	}
	return ""
}
