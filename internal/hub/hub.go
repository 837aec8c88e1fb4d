// Package hub owns the per-device decoders and ties them to persistence and
// the event bus. Frame sources (MQTT, serial tap) push raw frames in; the
// hub routes each to its device's decoder and fans decoded actions out to
// consumers.
package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zigbee-remote-hub/internal/decoder"
	"zigbee-remote-hub/internal/profile"
	"zigbee-remote-hub/internal/store"
	"zigbee-remote-hub/internal/zcl"
)

// Hub manages device decoders and dispatches their actions.
type Hub struct {
	store    store.Store
	profiles *profile.DB
	registry *zcl.Registry
	events   *EventBus
	logger   *slog.Logger
	now      decoder.Clock

	mu      sync.Mutex
	devices map[string]*deviceEntry
}

type deviceEntry struct {
	dec     *decoder.Device
	profile *profile.Profile
}

// New creates a hub. A nil clock means time.Now.
func New(st store.Store, profiles *profile.DB, registry *zcl.Registry, events *EventBus, logger *slog.Logger, now decoder.Clock) *Hub {
	if now == nil {
		now = time.Now
	}
	return &Hub{
		store:    st,
		profiles: profiles,
		registry: registry,
		events:   events,
		logger:   logger.With("component", "hub"),
		now:      now,
		devices:  make(map[string]*deviceEntry),
	}
}

// Events returns the event bus.
func (h *Hub) Events() *EventBus { return h.events }

// Store returns the store.
func (h *Hub) Store() store.Store { return h.store }

// Profiles returns the profile database.
func (h *Hub) Profiles() *profile.DB { return h.profiles }

// Registry returns the ZCL registry.
func (h *Hub) Registry() *zcl.Registry { return h.registry }

// HandleFrame routes one raw frame to the device's decoder. The model
// identifier selects the decoder profile on first sight; empty model falls
// back to whatever the store knows about the device.
//
// Frames for one device are handled sequentially regardless of which source
// delivered them; the device decoder serializes internally.
func (h *Hub) HandleFrame(ieee, model string, f decoder.RawFrame) {
	entry := h.deviceFor(ieee, model)

	if !entry.profile.ClusterActive(f.Cluster) {
		h.logger.Debug("frame for inactive cluster",
			"ieee", ieee, "cluster", h.registry.Name(f.Cluster), "profile", entry.profile.Name)
		h.events.Emit(Event{Type: EventFrameDropped, Data: map[string]interface{}{
			"ieee":    ieee,
			"cluster": f.Cluster,
			"reason":  "inactive_cluster",
		}})
		return
	}

	if !entry.dec.HandleFrame(f) {
		h.events.Emit(Event{Type: EventFrameDropped, Data: map[string]interface{}{
			"ieee":    ieee,
			"cluster": f.Cluster,
			"command": h.registry.CommandName(f.Cluster, f.Command),
			"reason":  "undecodable",
		}})
	}
}

// CommandArgs carries the typed arguments of a structured capability command.
type CommandArgs struct {
	StepMode   uint8
	SceneID    uint8
	Hue        uint8
	Saturation uint8
}

// HandleCommand invokes the matching capability slot for an
// already-structured command from the capability-binding layer. Commands for
// clusters the device's profile does not activate have no slot and are
// dropped with a log line.
func (h *Hub) HandleCommand(ieee, model, command string, args CommandArgs) error {
	entry := h.deviceFor(ieee, model)
	caps := entry.dec.Capabilities()

	invoke := func(slot func()) error {
		if slot == nil {
			h.logger.Debug("command for inactive capability dropped",
				"ieee", ieee, "command", command, "profile", entry.profile.Name)
			return nil
		}
		slot()
		return nil
	}

	switch command {
	case "setOn":
		return invoke(caps.OnSetOn)
	case "setOff":
		return invoke(caps.OnSetOff)
	case "step":
		if caps.OnStep == nil {
			return invoke(nil)
		}
		caps.OnStep(args.StepMode)
		return nil
	case "recallScene":
		if caps.OnRecallScene == nil {
			return invoke(nil)
		}
		caps.OnRecallScene(args.SceneID)
		return nil
	case "moveToHue":
		if caps.OnMoveToHue == nil {
			return invoke(nil)
		}
		caps.OnMoveToHue(args.Hue)
		return nil
	case "moveToSaturation":
		if caps.OnMoveToSaturation == nil {
			return invoke(nil)
		}
		caps.OnMoveToSaturation(args.Saturation)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

// Trigger implements decoder.TriggerSink: persist the action, then fan out.
func (h *Hub) Trigger(a decoder.Action) {
	h.logger.Info("action decoded",
		"ieee", a.Device, "action", a.ID, "source", a.Source)

	err := h.store.UpdateDevice(a.Device, func(dev *store.Device) error {
		dev.LastSeen = a.Time
		dev.LastAction = string(a.ID)
		dev.LastActionAt = a.Time
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("update device on action", "ieee", a.Device, "err", err)
	}

	rec := &store.ActionRecord{
		Action:   string(a.ID),
		Source:   string(a.Source),
		Time:     a.Time,
		Evidence: a.Evidence.PayloadHex(),
	}
	if err := h.store.AppendAction(a.Device, rec); err != nil {
		h.logger.Error("append action history", "ieee", a.Device, "err", err)
	}

	h.events.Emit(Event{Type: EventAction, Data: map[string]interface{}{
		"ieee":     a.Device,
		"action":   string(a.ID),
		"source":   string(a.Source),
		"time":     a.Time,
		"evidence": a.Evidence.PayloadHex(),
	}})
}

// deviceFor returns the decoder entry for a device, creating it (and the
// store record) on first sight.
func (h *Hub) deviceFor(ieee, model string) *deviceEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entry, ok := h.devices[ieee]; ok {
		if model != "" && entry.profile != h.profiles.ForModel(model) {
			// Model changed or became known: rebuild the decoder.
			entry.dec.Teardown()
			delete(h.devices, ieee)
		} else {
			return entry
		}
	}

	if model == "" {
		if dev, err := h.store.GetDevice(ieee); err == nil {
			model = dev.Model
		}
	}

	p := h.profiles.ForModel(model)
	entry := &deviceEntry{
		dec:     decoder.NewDevice(p.DeviceConfig(ieee), h, h.logger, h.now),
		profile: p,
	}
	h.devices[ieee] = entry

	h.persistSighting(ieee, model, p)
	return entry
}

func (h *Hub) persistSighting(ieee, model string, p *profile.Profile) {
	now := h.now()
	dev, err := h.store.GetDevice(ieee)
	if err != nil {
		dev = &store.Device{IEEEAddress: ieee, FirstSeen: now}
		h.events.Emit(Event{Type: EventDeviceSeen, Data: map[string]interface{}{
			"ieee": ieee, "model": model, "profile": p.Name,
		}})
	}
	dev.LastSeen = now
	if model != "" {
		dev.Model = model
	}
	dev.Profile = p.Name
	if err := h.store.SaveDevice(dev); err != nil {
		h.logger.Error("save device", "ieee", ieee, "err", err)
	}
	h.logger.Info("device active", "ieee", ieee, "model", model, "profile", p.Name)
}

// RemoveDevice tears down a device's decoder state and deletes it from the
// store. The recency cache dies with the decoder.
func (h *Hub) RemoveDevice(ieee string) error {
	h.mu.Lock()
	if entry, ok := h.devices[ieee]; ok {
		entry.dec.Teardown()
		delete(h.devices, ieee)
	}
	h.mu.Unlock()

	if err := h.store.DeleteDevice(ieee); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	h.events.Emit(Event{Type: EventDeviceRemoved, Data: map[string]interface{}{"ieee": ieee}})
	h.logger.Info("device removed", "ieee", ieee)
	return nil
}
