package domain

import "fmt"

// Batch - упорядоченная (по дате, от новых к старым) выборка сделок одного вызова.
type Batch []TransactionRecord

// Candidates - то, что вернул источник до фильтрации.
// Diagnostics заполняется, когда извлечение прошло частично.
type Candidates struct {
	Records     []TransactionRecord
	Diagnostics []string
}

// Note добавляет диагностическое сообщение.
func (c *Candidates) Note(format string, args ...any) {
	c.Diagnostics = append(c.Diagnostics, fmt.Sprintf(format, args...))
}

// AcquisitionResult - итог вызова: выборка и человекочитаемый статус.
type AcquisitionResult struct {
	RequestID   string   `json:"request_id"`
	Mode        Mode     `json:"mode"`
	Records     Batch    `json:"records"`
	Status      string   `json:"status"`
	Degraded    bool     `json:"degraded"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}
