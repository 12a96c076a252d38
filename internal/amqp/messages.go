package amqp

import (
	"encoding/json"
	"time"
)

// ImportCompletedMessage announces that an import batch was persisted. The
// worker reads the transactions back from the store; only counters travel.
type ImportCompletedMessage struct {
	BatchID      string    `json:"batch_id"`
	Source       string    `json:"source"`
	TotalRows    int       `json:"total_rows"`
	ImportedRows int       `json:"imported_rows"`
	ErrorCount   int       `json:"error_count"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(batchID, source string, total, imported, errorCount int) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		BatchID:      batchID,
		Source:       source,
		TotalRows:    total,
		ImportedRows: imported,
		ErrorCount:   errorCount,
		Timestamp:    time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
