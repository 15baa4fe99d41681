package mqtt

import "strings"

const TopicSeparator = "/"

// TrimTopic trims TopicSeparator from the start and end of the specified topic.
func TrimTopic(topic string) string {
	return strings.Trim(topic, TopicSeparator)
}

// JoinTopic trims each part and joins the non-empty results with TopicSeparator.
func JoinTopic(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = TrimTopic(part); part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, TopicSeparator)
}

// CutTopicPrefix returns topic relative to prefix. The second return value is false if topic is not below prefix.
func CutTopicPrefix(topic, prefix string) (string, bool) {
	prefix = TrimTopic(prefix)
	topic = TrimTopic(topic)
	if prefix == "" {
		return topic, true
	}

	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok || (rest != "" && !strings.HasPrefix(rest, TopicSeparator)) {
		return "", false
	}

	return TrimTopic(rest), true
}
