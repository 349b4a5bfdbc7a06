package models

import (
	"fmt"
	"strings"
)

// Topic tags a post with one member of a closed set of subjects.
type Topic string

const (
	TopicEducation      Topic = "education"
	TopicHealth         Topic = "health"
	TopicSecurity       Topic = "security"
	TopicAdministration Topic = "administration"
	TopicJustice        Topic = "justice"
	TopicFinance        Topic = "finance"
	TopicTransport      Topic = "transport"
	TopicAgriculture    Topic = "agriculture"
	TopicTourism        Topic = "tourism"
	TopicTechnology     Topic = "technology"
	TopicOther          Topic = "other"
)

// AllTopics lists every accepted topic in display order.
var AllTopics = []Topic{
	TopicEducation,
	TopicHealth,
	TopicSecurity,
	TopicAdministration,
	TopicJustice,
	TopicFinance,
	TopicTransport,
	TopicAgriculture,
	TopicTourism,
	TopicTechnology,
	TopicOther,
}

// Valid reports whether t belongs to the closed topic set.
func (t Topic) Valid() bool {
	for _, known := range AllTopics {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTopic normalizes s and rejects unknown topics.
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return "", NewValidationError("Topic is required")
	}
	if !t.Valid() {
		return "", NewValidationError(fmt.Sprintf("Unknown topic %q", s))
	}
	return t, nil
}
