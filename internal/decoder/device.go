package decoder

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"zigbee-remote-hub/internal/zcl"
)

// DeviceConfig is the decoder-facing slice of a device profile: which
// clusters the model actually signals on, and how its scene recalls are
// numbered. Clusters a model does not declare are dropped outright, which is
// what prevents one physical press from emitting twice on models where both
// the vendor and the color-control channel would fire.
type DeviceConfig struct {
	IEEE string

	// ManufacturerCluster is the vendor-specific cluster ID carrying scene
	// buttons. Zero disables the vendor channel.
	ManufacturerCluster uint16

	ColorControlActive bool
	OnOffActive        bool
	LevelControlActive bool
	ScenesActive       bool

	SceneNumbering SceneNumbering
}

// Device decodes frames and capability commands for one physical remote.
// Frames are handled strictly sequentially: the mutex serializes callers so
// the recency cache sees presses in arrival order even if two frame sources
// deliver concurrently.
type Device struct {
	cfg        DeviceConfig
	resolver   *Resolver
	normalizer *Normalizer
	emitter    *Emitter
	logger     *slog.Logger
	now        Clock

	mu sync.Mutex
}

// NewDevice creates a decoder for one device. A nil clock means time.Now.
func NewDevice(cfg DeviceConfig, sink TriggerSink, logger *slog.Logger, now Clock) *Device {
	if now == nil {
		now = time.Now
	}
	logger = logger.With("device", cfg.IEEE)
	return &Device{
		cfg:        cfg,
		resolver:   NewResolver(logger, now),
		normalizer: NewNormalizer(cfg.SceneNumbering, logger),
		emitter:    NewEmitter(sink, logger),
		logger:     logger,
		now:        now,
	}
}

// Config returns the device's decoder configuration.
func (d *Device) Config() DeviceConfig { return d.cfg }

// HandleFrame decodes one raw frame, emitting at most one action. Returns
// true when an action was emitted. Decode panics from hostile payloads are
// recovered and logged here; nothing propagates to the transport.
func (d *Device) HandleFrame(f RawFrame) (emitted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("frame decode panic",
				"cluster", f.Cluster, "command", f.Command, "panic", r)
			emitted = false
		}
	}()

	var (
		ev     ButtonEvidence
		source SourcePath
		err    error
	)

	switch {
	case d.cfg.ManufacturerCluster != 0 && f.Cluster == d.cfg.ManufacturerCluster:
		ev, err = parseManufacturerFrame(f)
		source = SourceManufacturer
	case d.cfg.ColorControlActive && f.Cluster == zcl.IDColorControl:
		ev, err = parseColorControlFrame(f)
		source = SourceColorControl
	default:
		d.logger.Debug("frame for inactive cluster dropped", "cluster", f.Cluster)
		return false
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedFrame):
			d.logger.Warn("malformed frame dropped",
				"cluster", f.Cluster, "command", f.Command, "err", err)
		case errors.Is(err, ErrUnknownIdentifier):
			d.logger.Debug("unmapped frame dropped",
				"cluster", f.Cluster, "command", f.Command, "err", err)
		default:
			d.logger.Warn("frame dropped", "cluster", f.Cluster, "err", err)
		}
		return false
	}

	action := d.resolver.Resolve(ev)
	d.emitter.Emit(Action{
		ID:     action,
		Source: source,
		Device: d.cfg.IEEE,
		Time:   d.frameTime(f),
		Evidence: Evidence{
			Endpoint: f.Endpoint,
			Cluster:  f.Cluster,
			Command:  f.Command,
			Payload:  f.Payload,
		},
	})
	return true
}

func (d *Device) frameTime(f RawFrame) time.Time {
	if !f.ReceivedAt.IsZero() {
		return f.ReceivedAt
	}
	return d.now()
}

// Capabilities returns the populated callback slots for this device's active
// clusters. The capability-binding collaborator invokes whichever slots are
// non-nil; commands for inactive clusters have no slot at all.
func (d *Device) Capabilities() Capabilities {
	var caps Capabilities
	if d.cfg.OnOffActive {
		caps.OnSetOn = func() { d.emitCapability(d.normalizer.SetOn(), SourceOnOff) }
		caps.OnSetOff = func() { d.emitCapability(d.normalizer.SetOff(), SourceOnOff) }
	}
	if d.cfg.LevelControlActive {
		caps.OnStep = func(stepMode uint8) {
			d.emitCapability(d.normalizer.Step(stepMode), SourceLevelControl)
		}
	}
	if d.cfg.ScenesActive {
		caps.OnRecallScene = func(sceneID uint8) {
			d.emitCapability(d.normalizer.RecallScene(sceneID), SourceScenes)
		}
	}
	if d.cfg.ColorControlActive {
		caps.OnMoveToHue = d.normalizer.MoveToHue
		caps.OnMoveToSaturation = d.normalizer.MoveToSaturation
	}
	return caps
}

func (d *Device) emitCapability(action ActionID, source SourcePath) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitter.Emit(Action{
		ID:     action,
		Source: source,
		Device: d.cfg.IEEE,
		Time:   d.now(),
	})
}

// Teardown clears per-device decoder state. Call when the device leaves.
func (d *Device) Teardown() {
	d.resolver.Reset()
}
