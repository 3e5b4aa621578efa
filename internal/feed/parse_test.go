package feed

import (
	"math"
	"testing"
)

func TestParseKlineMessage_ClosedBar(t *testing.T) {
	message := []byte(`{
		"stream": "abcusdt@kline_1h",
		"data": {
			"e": "kline",
			"s": "ABCUSDT",
			"k": {
				"t": 1700000000000,
				"o": "0.1000",
				"h": "0.1250",
				"l": "0.0950",
				"c": "0.1200",
				"v": "15000.5",
				"x": true
			}
		}
	}`)

	event, ok, err := ParseKlineMessage(message)
	if err != nil {
		t.Fatalf("ParseKlineMessage failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected closed bar to be emitted")
	}

	if event.Symbol != "ABCUSDT" {
		t.Errorf("Symbol = %s, want ABCUSDT", event.Symbol)
	}
	if event.Bar.TimestampMs != 1700000000000 {
		t.Errorf("TimestampMs = %d, want 1700000000000", event.Bar.TimestampMs)
	}
	if math.Abs(event.Bar.Close-0.12) > 1e-9 {
		t.Errorf("Close = %f, want 0.12", event.Bar.Close)
	}
	if math.Abs(event.Bar.Volume-15000.5) > 1e-9 {
		t.Errorf("Volume = %f, want 15000.5", event.Bar.Volume)
	}
}

func TestParseKlineMessage_OpenBarIgnored(t *testing.T) {
	message := []byte(`{
		"stream": "abcusdt@kline_1h",
		"data": {
			"e": "kline",
			"s": "ABCUSDT",
			"k": {"t": 1700000000000, "o": "0.1", "h": "0.12", "l": "0.09", "c": "0.11", "v": "100", "x": false}
		}
	}`)

	_, ok, err := ParseKlineMessage(message)
	if err != nil {
		t.Fatalf("ParseKlineMessage failed: %v", err)
	}
	if ok {
		t.Error("Open bar must not be emitted")
	}
}

func TestParseKlineMessage_NonKlineEventIgnored(t *testing.T) {
	message := []byte(`{"stream": "abcusdt@depth", "data": {"e": "depthUpdate"}}`)

	_, ok, err := ParseKlineMessage(message)
	if err != nil {
		t.Fatalf("ParseKlineMessage failed: %v", err)
	}
	if ok {
		t.Error("Non-kline event must not be emitted")
	}
}

func TestParseKlineMessage_BadPrice(t *testing.T) {
	message := []byte(`{
		"stream": "abcusdt@kline_1h",
		"data": {
			"e": "kline",
			"s": "ABCUSDT",
			"k": {"t": 1700000000000, "o": "abc", "h": "0.12", "l": "0.09", "c": "0.11", "v": "100", "x": true}
		}
	}`)

	_, _, err := ParseKlineMessage(message)
	if err == nil {
		t.Error("Expected error for unparseable price")
	}
}

func TestParseKlineMessage_InvalidBarRejected(t *testing.T) {
	// High below close violates integrity
	message := []byte(`{
		"stream": "abcusdt@kline_1h",
		"data": {
			"e": "kline",
			"s": "ABCUSDT",
			"k": {"t": 1700000000000, "o": "0.1", "h": "0.05", "l": "0.04", "c": "0.11", "v": "100", "x": true}
		}
	}`)

	_, _, err := ParseKlineMessage(message)
	if err == nil {
		t.Error("Expected error for bar failing integrity validation")
	}
}

func TestParseKlineMessage_Malformed(t *testing.T) {
	_, _, err := ParseKlineMessage([]byte(`{not json`))
	if err == nil {
		t.Error("Expected error for malformed JSON")
	}
}
