package mqtt

import "fmt"

// Topic prefix for all bridge traffic.
//
// The topic scheme is flat: dmxbridge/{category}[/{qualifier}]. Commands
// arrive on per-kind topics, events leave on per-kind topics, and the
// retained status/health topics let late subscribers catch up immediately.
const TopicPrefix = "dmxbridge"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.Command("fade")
//	// Returns: "dmxbridge/command/fade"
type Topics struct{}

// =============================================================================
// Inbound Topics
// =============================================================================

// Command returns the topic commands of one kind arrive on.
//
// Example: dmxbridge/command/fade
func (Topics) Command(kind string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, kind)
}

// AllCommands returns a pattern matching every command topic.
//
// Pattern: dmxbridge/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefix)
}

// SceneDefine returns the topic a named scene definition arrives on.
// Publishing an empty payload removes the scene.
//
// Example: dmxbridge/scene/evening
func (Topics) SceneDefine(name string) string {
	return fmt.Sprintf("%s/scene/%s", TopicPrefix, name)
}

// AllSceneDefines returns a pattern matching every scene definition topic.
//
// Pattern: dmxbridge/scene/+
func (Topics) AllSceneDefines() string {
	return fmt.Sprintf("%s/scene/+", TopicPrefix)
}

// HistoryRequest returns the topic a command history query arrives on.
// The payload optionally carries a result limit; the reply goes out on
// HistoryRecent.
//
// Example: dmxbridge/history/request
func (Topics) HistoryRequest() string {
	return fmt.Sprintf("%s/history/request", TopicPrefix)
}

// =============================================================================
// Outbound Topics
// =============================================================================

// HistoryRecent returns the topic recent command history is published on
// in answer to a HistoryRequest.
//
// Example: dmxbridge/history/recent
func (Topics) HistoryRecent() string {
	return fmt.Sprintf("%s/history/recent", TopicPrefix)
}

// Ack returns the per-command acknowledgement topic.
//
// Example: dmxbridge/ack/8f14e45f
func (Topics) Ack(commandID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, commandID)
}

// EventError returns the non-retained error stream topic.
//
// Example: dmxbridge/event/error
func (Topics) EventError() string {
	return fmt.Sprintf("%s/event/error", TopicPrefix)
}

// EventLastError returns the retained last-error topic. New subscribers
// immediately see the most recent failure.
//
// Example: dmxbridge/event/last_error
func (Topics) EventLastError() string {
	return fmt.Sprintf("%s/event/last_error", TopicPrefix)
}

// EventFadeCompleted returns the fade completion event topic.
//
// Example: dmxbridge/event/fade_completed
func (Topics) EventFadeCompleted() string {
	return fmt.Sprintf("%s/event/fade_completed", TopicPrefix)
}

// Health returns the retained health report topic.
//
// Example: dmxbridge/health
func (Topics) Health() string {
	return fmt.Sprintf("%s/health", TopicPrefix)
}

// Status returns the retained online/offline status topic. This is also
// the LWT topic, so an unexpected disconnect flips it to offline.
//
// Example: dmxbridge/status
func (Topics) Status() string {
	return fmt.Sprintf("%s/status", TopicPrefix)
}

// FrameEcho returns the optional diagnostics topic carrying periodic
// universe snapshots.
//
// Example: dmxbridge/frame
func (Topics) FrameEcho() string {
	return fmt.Sprintf("%s/frame", TopicPrefix)
}
