package feed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"pump-short-lab/internal/domain"
)

// Combined-stream kline message types. Price and volume fields arrive as
// strings on the wire.

type streamMessage struct {
	Stream string     `json:"stream"`
	Data   klineEvent `json:"data"`
}

type klineEvent struct {
	EventType string       `json:"e"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTimeMs int64  `json:"t"`
	Open       string `json:"o"`
	High       string `json:"h"`
	Low        string `json:"l"`
	Close      string `json:"c"`
	Volume     string `json:"v"`
	Closed     bool   `json:"x"`
}

// ParseKlineMessage parses one combined-stream message. Returns ok=false
// for open bars and non-kline events.
func ParseKlineMessage(message []byte) (Event, bool, error) {
	var msg streamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return Event{}, false, fmt.Errorf("unmarshal kline message: %w", err)
	}

	if msg.Data.EventType != "kline" {
		return Event{}, false, nil
	}
	if !msg.Data.Kline.Closed {
		return Event{}, false, nil
	}

	k := msg.Data.Kline
	bar := domain.Bar{TimestampMs: k.OpenTimeMs}

	var err error
	if bar.Open, err = parsePrice("open", k.Open); err != nil {
		return Event{}, false, err
	}
	if bar.High, err = parsePrice("high", k.High); err != nil {
		return Event{}, false, err
	}
	if bar.Low, err = parsePrice("low", k.Low); err != nil {
		return Event{}, false, err
	}
	if bar.Close, err = parsePrice("close", k.Close); err != nil {
		return Event{}, false, err
	}
	if bar.Volume, err = parsePrice("volume", k.Volume); err != nil {
		return Event{}, false, err
	}

	if err := bar.Validate(); err != nil {
		return Event{}, false, fmt.Errorf("kline bar invalid: %w", err)
	}

	return Event{Symbol: msg.Data.Symbol, Bar: bar}, true, nil
}

func parsePrice(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse kline %s %q: %w", field, value, err)
	}
	return f, nil
}
