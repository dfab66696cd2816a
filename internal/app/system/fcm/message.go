package fcm

import (
	"fmt"
	"strings"
)

// TopicForAudience maps an audience to its topic: "all" stays "all", other
// values are lowercased and prefixed with "course_" unless already prefixed.
// A blank audience means everyone.
func TopicForAudience(audience string) string {
	a := strings.ToLower(strings.TrimSpace(audience))
	switch {
	case a == "" || a == TopicAll:
		return TopicAll
	case strings.HasPrefix(a, "course_"):
		return a
	default:
		return "course_" + a
	}
}

// StringData applies the default routing keys and stringifies every value.
// Caller keys override the defaults; nil becomes "".
func StringData(data map[string]any) map[string]string {
	out := map[string]string{
		"nav":    "notifications",
		"screen": "notifications",
		"type":   "announcement",
	}
	for k, v := range data {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers free of exponents.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func newMessage(title, body string, data map[string]any) Message {
	m := Message{
		Notification: Notification{Title: title, Body: body},
		Data:         StringData(data),
		Android:      &androidConfig{Priority: "high"},
		APNS:         &apnsConfig{},
	}
	m.APNS.Payload.APS.Sound = "default"
	return m
}

// TopicMessage builds a high-priority message for everyone subscribed to
// the audience's topic.
func TopicMessage(audience, title, body string, data map[string]any) Message {
	m := newMessage(title, body, data)
	m.Topic = TopicForAudience(audience)
	return m
}

// TokenMessage builds a high-priority message for a single device.
func TokenMessage(token, title, body string, data map[string]any) Message {
	m := newMessage(title, body, data)
	m.Token = token
	return m
}
