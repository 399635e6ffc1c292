package amqp

import (
	"encoding/json"
	"time"
)

// YearExportMessage asks the export worker to regenerate the year-end
// report for one fiscal year. It carries only the id; the worker loads
// the current collections itself, so a stale message still exports
// fresh data.
type YearExportMessage struct {
	FiscalYearID string    `json:"fiscalYearId"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewYearExportMessage(fiscalYearID string) *YearExportMessage {
	return &YearExportMessage{
		FiscalYearID: fiscalYearID,
		Timestamp:    time.Now(),
	}
}

func (m *YearExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func YearExportMessageFromJSON(data []byte) (*YearExportMessage, error) {
	var msg YearExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
