// Package bridge connects the engine to the MQTT broker.
//
// It decodes command payloads arriving on the command topics, submits them
// to the engine, and publishes the engine's outcomes back to the broker:
// per-command acknowledgements, an error stream with a retained last-error
// copy, fade completion events, and a periodic retained health report.
//
// The bridge never touches channel values itself. All lighting state lives
// in the engine; the bridge is translation and transport only.
package bridge
