package decoder

import "log/slog"

// TriggerSink receives decoded actions. Fire-and-forget: the sink is invoked
// exactly once per decode, but nothing deduplicates across decode paths — if
// a model has both the vendor and the color-control cluster active, one
// physical press can legitimately produce two emissions. Profiles restrict
// active clusters to prevent that (see internal/profile).
type TriggerSink interface {
	Trigger(Action)
}

// Emitter forwards canonical actions to the trigger sink.
type Emitter struct {
	sink   TriggerSink
	logger *slog.Logger
}

// NewEmitter creates an emitter bound to one sink.
func NewEmitter(sink TriggerSink, logger *slog.Logger) *Emitter {
	return &Emitter{sink: sink, logger: logger}
}

// Emit forwards one action. Never blocks on the decode path; the sink is
// expected to return promptly.
func (e *Emitter) Emit(a Action) {
	e.logger.Debug("action",
		"device", a.Device, "action", a.ID, "source", a.Source, "payload", a.Evidence.PayloadHex())
	e.sink.Trigger(a)
}
