package mqtt

import "strings"

// Reserved sub-topics under the session root.
const (
	// TopicHeartbeat carries the periodic millis-since-boot heartbeat.
	TopicHeartbeat = "heartbeat"

	// TopicStatus is the will topic: "online" retained while connected,
	// "offline" on loss or graceful stop.
	TopicStatus = "status"

	// TopicCmd receives console command lines dispatched quietly.
	TopicCmd = "cmd"

	// TopicInfoFreeMem, TopicInfoFragmentation and TopicInfoUptime carry
	// the gauges published every 60 s.
	TopicInfoFreeMem       = "info/freemem"
	TopicInfoFragmentation = "info/fragmentation"
	TopicInfoUptime        = "info/uptime"
)

// Qualify resolves topic against root. A topic starting with '/' is
// absolute: the slash is stripped and no root is prepended. Anything else
// is published under "<root>/<topic>". An empty root leaves relative
// topics untouched.
func Qualify(root, topic string) string {
	if strings.HasPrefix(topic, "/") {
		return strings.TrimPrefix(topic, "/")
	}
	if root == "" {
		return topic
	}
	return root + "/" + topic
}
