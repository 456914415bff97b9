package amqp

import (
	"encoding/json"
	"time"

	"ricevute/internal/core"
)

// ReceiptExtractedMessage is what the extraction service publishes for each
// processed receipt image: the raw field map plus where it came from. The
// payload is untrusted; the ingestor validates it like any other input.
type ReceiptExtractedMessage struct {
	Source    string          `json:"source"`
	Receipt   core.RawReceipt `json:"receipt"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewReceiptExtractedMessage wraps a raw receipt for publishing.
func NewReceiptExtractedMessage(source string, receipt core.RawReceipt) *ReceiptExtractedMessage {
	return &ReceiptExtractedMessage{
		Source:    source,
		Receipt:   receipt,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ReceiptExtractedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReceiptExtractedMessageFromJSON creates a message from JSON bytes.
func ReceiptExtractedMessageFromJSON(data []byte) (*ReceiptExtractedMessage, error) {
	var msg ReceiptExtractedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
