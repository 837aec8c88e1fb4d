// Package mqtt bridges the hub to an MQTT broker: raw frames and structured
// capability commands come in, canonical actions go out. Delivery, retries,
// and addressing stay with the broker and the mesh transport behind it.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"zigbee-remote-hub/internal/hub"
)

// Config holds MQTT bridge configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// Bridge connects the hub to MQTT.
type Bridge struct {
	client pahomqtt.Client
	hub    *hub.Hub
	prefix string
	logger *slog.Logger
	unsub  func()
}

// NewBridge creates and connects an MQTT bridge.
func NewBridge(h *hub.Hub, cfg Config, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{
		hub:    h,
		prefix: cfg.TopicPrefix,
		logger: logger.With("component", "mqtt"),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("zigbee-remote-hub").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(cfg.TopicPrefix+"/bridge/state", "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			b.logger.Info("MQTT connected")
			b.publishBridgeState("online")
			b.subscribe()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	b.client = client
	return b, nil
}

// Start subscribes to hub events and begins publishing actions.
func (b *Bridge) Start() {
	b.unsub = b.hub.Events().On(hub.EventAction, b.publishAction)
	b.logger.Info("MQTT bridge started", "prefix", b.prefix)
}

// Stop publishes offline state, unsubscribes, and disconnects.
func (b *Bridge) Stop() {
	if b.unsub != nil {
		b.unsub()
	}
	b.publishBridgeState("offline")
	b.client.Disconnect(1000)
	b.logger.Info("MQTT bridge stopped")
}

// subscribe wires the inbound topics. Paho delivers messages for one
// subscription sequentially, which preserves per-device frame order.
func (b *Bridge) subscribe() {
	frameTopic := b.prefix + "/frame/+"
	if token := b.client.Subscribe(frameTopic, 1, b.handleFrameMessage); token.Wait() && token.Error() != nil {
		b.logger.Error("subscribe frames", "topic", frameTopic, "err", token.Error())
	}

	commandTopic := b.prefix + "/command/+"
	if token := b.client.Subscribe(commandTopic, 1, b.handleCommandMessage); token.Wait() && token.Error() != nil {
		b.logger.Error("subscribe commands", "topic", commandTopic, "err", token.Error())
	}
}

func (b *Bridge) handleFrameMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	ieee := topicIEEE(msg.Topic())
	if ieee == "" {
		b.logger.Warn("frame message without device segment", "topic", msg.Topic())
		return
	}
	model, frame, err := parseFrameMessage(msg.Payload())
	if err != nil {
		b.logger.Warn("bad frame message", "topic", msg.Topic(), "err", err)
		return
	}
	b.hub.HandleFrame(ieee, model, frame)
}

func (b *Bridge) handleCommandMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	ieee := topicIEEE(msg.Topic())
	if ieee == "" {
		b.logger.Warn("command message without device segment", "topic", msg.Topic())
		return
	}
	cmd, err := parseCommandMessage(msg.Payload())
	if err != nil {
		b.logger.Warn("bad command message", "topic", msg.Topic(), "err", err)
		return
	}
	err = b.hub.HandleCommand(ieee, cmd.Model, cmd.Command, hub.CommandArgs{
		StepMode:   cmd.StepMode,
		SceneID:    cmd.SceneID,
		Hue:        cmd.Hue,
		Saturation: cmd.Saturation,
	})
	if err != nil {
		b.logger.Warn("command rejected", "ieee", ieee, "command", cmd.Command, "err", err)
	}
}

func (b *Bridge) publishAction(event hub.Event) {
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		return
	}
	ieee, _ := data["ieee"].(string)
	if ieee == "" {
		return
	}
	action, _ := data["action"].(string)
	source, _ := data["source"].(string)
	evidence, _ := data["evidence"].(string)
	ts, _ := data["time"].(time.Time)

	msg := actionMessage{
		IEEE:     ieee,
		Action:   action,
		Source:   source,
		Time:     ts,
		Evidence: evidence,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshal action", "err", err)
		return
	}
	topic := b.prefix + "/action/" + ieee
	if token := b.client.Publish(topic, 0, false, body); token.Wait() && token.Error() != nil {
		b.logger.Warn("publish action", "topic", topic, "err", token.Error())
	}
}

func (b *Bridge) publishBridgeState(state string) {
	topic := b.prefix + "/bridge/state"
	if token := b.client.Publish(topic, 1, true, state); token.Wait() && token.Error() != nil {
		b.logger.Warn("publish bridge state", "err", token.Error())
	}
}
