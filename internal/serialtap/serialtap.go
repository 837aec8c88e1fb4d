// Package serialtap feeds frames from a UART-attached sniffer into the hub.
// The sniffer prints one JSON record per line for every application-layer
// frame it sees; this package only moves those records, it implements no
// mesh semantics.
package serialtap

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"zigbee-remote-hub/internal/decoder"
	"zigbee-remote-hub/internal/hub"
)

// Config holds serial tap configuration.
type Config struct {
	Port string
	Baud int
}

// frameRecord is one line from the sniffer.
type frameRecord struct {
	IEEE     string `json:"ieee"`
	Endpoint uint8  `json:"endpoint"`
	Cluster  uint16 `json:"cluster"`
	Command  uint8  `json:"command,omitempty"`
	Payload  string `json:"payload"`
	Model    string `json:"model,omitempty"`
}

// Tap reads frame records from a serial port and pushes them into the hub.
type Tap struct {
	hub    *hub.Hub
	port   serial.Port
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Open opens the serial port and starts the read loop.
func Open(h *hub.Hub, cfg Config, logger *slog.Logger) (*Tap, error) {
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("serial tap: open %s: %w", cfg.Port, err)
	}

	t := &Tap{
		hub:    h,
		port:   port,
		logger: logger.With("component", "serialtap"),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	t.logger.Info("serial tap started", "port", cfg.Port, "baud", cfg.Baud)
	return t, nil
}

// Stop closes the port; the read loop exits on the resulting read error.
func (t *Tap) Stop() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.port.Close()
	})
	t.logger.Info("serial tap stopped")
}

func (t *Tap) readLoop() {
	scanner := bufio.NewScanner(t.port)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ieee, model, frame, err := parseRecord(line)
		if err != nil {
			t.logger.Debug("skipping sniffer line", "err", err)
			continue
		}
		t.hub.HandleFrame(ieee, model, frame)
	}
	select {
	case <-t.done:
		// normal shutdown
	default:
		if err := scanner.Err(); err != nil {
			t.logger.Error("serial tap read loop ended", "err", err)
		}
	}
}

// parseRecord decodes one sniffer line into a raw frame.
func parseRecord(line []byte) (string, string, decoder.RawFrame, error) {
	var rec frameRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", "", decoder.RawFrame{}, fmt.Errorf("parse record: %w", err)
	}
	if rec.IEEE == "" {
		return "", "", decoder.RawFrame{}, fmt.Errorf("record without ieee")
	}
	payload, err := hex.DecodeString(rec.Payload)
	if err != nil {
		return "", "", decoder.RawFrame{}, fmt.Errorf("decode payload: %w", err)
	}
	return rec.IEEE, rec.Model, decoder.RawFrame{
		Endpoint: rec.Endpoint,
		Cluster:  rec.Cluster,
		Command:  rec.Command,
		Payload:  payload,
	}, nil
}
