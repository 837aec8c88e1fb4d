package mqtt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"zigbee-remote-hub/internal/decoder"
)

// frameMessage is the JSON body published on <prefix>/frame/<ieee> by the
// transport collaborator. Payload is hex-encoded.
type frameMessage struct {
	Endpoint uint8     `json:"endpoint"`
	Cluster  uint16    `json:"cluster"`
	Command  uint8     `json:"command,omitempty"`
	Payload  string    `json:"payload"`
	Model    string    `json:"model,omitempty"`
	Time     time.Time `json:"time,omitempty"`
}

// commandMessage is the JSON body published on <prefix>/command/<ieee> by
// the capability-binding collaborator: an already-parsed cluster command
// with typed arguments.
type commandMessage struct {
	Command    string `json:"command"`
	Model      string `json:"model,omitempty"`
	StepMode   uint8  `json:"step_mode,omitempty"`
	SceneID    uint8  `json:"scene_id,omitempty"`
	Hue        uint8  `json:"hue,omitempty"`
	Saturation uint8  `json:"saturation,omitempty"`
}

// actionMessage is the JSON body published on <prefix>/action/<ieee>.
type actionMessage struct {
	IEEE     string    `json:"ieee"`
	Action   string    `json:"action"`
	Source   string    `json:"source"`
	Time     time.Time `json:"time"`
	Evidence string    `json:"evidence,omitempty"`
}

// topicIEEE extracts the device address from the last topic segment.
func topicIEEE(topic string) string {
	i := strings.LastIndex(topic, "/")
	if i < 0 {
		return ""
	}
	return topic[i+1:]
}

// parseFrameMessage decodes a frame message into a raw frame.
func parseFrameMessage(data []byte) (string, decoder.RawFrame, error) {
	var msg frameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", decoder.RawFrame{}, fmt.Errorf("parse frame message: %w", err)
	}
	payload, err := hex.DecodeString(msg.Payload)
	if err != nil {
		return "", decoder.RawFrame{}, fmt.Errorf("decode frame payload: %w", err)
	}
	return msg.Model, decoder.RawFrame{
		Endpoint:   msg.Endpoint,
		Cluster:    msg.Cluster,
		Command:    msg.Command,
		Payload:    payload,
		ReceivedAt: msg.Time,
	}, nil
}

// parseCommandMessage decodes a structured command message.
func parseCommandMessage(data []byte) (commandMessage, error) {
	var msg commandMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("parse command message: %w", err)
	}
	if msg.Command == "" {
		return msg, fmt.Errorf("command message without command field")
	}
	return msg, nil
}
