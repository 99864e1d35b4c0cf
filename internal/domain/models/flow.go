package models

import (
	"fmt"
	"time"
)

// FlowType classifies a detected options-flow anomaly.
type FlowType uint8

const (
	FlowDarkPool FlowType = iota
	FlowCallSweep
	FlowPutSweep
	FlowInstitutionalBlock
)

var flowTypeNames = [...]string{
	FlowDarkPool:           "dark_pool",
	FlowCallSweep:          "call_sweep",
	FlowPutSweep:           "put_sweep",
	FlowInstitutionalBlock: "institutional_block",
}

func (f FlowType) String() string {
	if int(f) < len(flowTypeNames) {
		return flowTypeNames[f]
	}
	return fmt.Sprintf("flow_type(%d)", uint8(f))
}

// MarshalText renders the wire name ("call_sweep", ...).
func (f FlowType) MarshalText() ([]byte, error) {
	if int(f) >= len(flowTypeNames) {
		return nil, fmt.Errorf("unknown flow type %d", uint8(f))
	}
	return []byte(flowTypeNames[f]), nil
}

func (f *FlowType) UnmarshalText(b []byte) error {
	for i, name := range flowTypeNames {
		if name == string(b) {
			*f = FlowType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown flow type %q", string(b))
}

// Direction is the predicted move implied by a signal's phase.
type Direction uint8

const (
	Bearish Direction = iota
	Bullish
)

func (d Direction) String() string {
	if d == Bullish {
		return "bullish"
	}
	return "bearish"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "bullish":
		*d = Bullish
	case "bearish":
		*d = Bearish
	default:
		return fmt.Errorf("unknown direction %q", string(b))
	}
	return nil
}

// Action maps a direction to the order side of a trading signal.
func (d Direction) Action() string {
	if d == Bullish {
		return "buy"
	}
	return "sell"
}

// FlowTick is one aligned sample fed to the flow detector.
type FlowTick struct {
	Symbol string
	Price  float64
	Volume float64
	Strike float64
}

// FlowSignal is an immutable anomaly record emitted by the flow detector.
type FlowSignal struct {
	Symbol      string    `json:"symbol"`
	Type        FlowType  `json:"flow_type"`
	Volume      int64     `json:"volume"`
	Strike      float64   `json:"strike"`
	Expiration  time.Time `json:"expiration"`
	Confidence  float64   `json:"confidence"`  // [0,1]
	Correlation float64   `json:"correlation"` // [0,1]
	Direction   Direction `json:"predicted_direction"`
	Timestamp   time.Time `json:"timestamp"`
}

// TradingSignal is a high-confidence flow signal turned into an order suggestion.
type TradingSignal struct {
	Symbol      string         `json:"symbol"`
	Action      string         `json:"action"`
	SignalType  string         `json:"signal_type"`
	Confidence  float64        `json:"confidence"`
	Correlation float64        `json:"quantum_correlation"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    SignalMetadata `json:"metadata"`
}

// SignalMetadata carries the flow details behind a trading signal.
type SignalMetadata struct {
	FlowType FlowType `json:"flow_type"`
	Volume   int64    `json:"volume"`
	Strike   float64  `json:"strike"`
}
