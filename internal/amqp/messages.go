package amqp

import (
	"time"

	"github.com/goccy/go-json"
)

// DueReminderMessage asks the reminder worker to contact a client about an
// installment that is due today or overdue.
type DueReminderMessage struct {
	AgreementID string    `json:"agreement_id"`
	ClientName  string    `json:"client_name"`
	Phone       string    `json:"phone,omitempty"`
	Installment string    `json:"installment"`
	AmountCents int64     `json:"amount_cents"`
	DueDate     string    `json:"due_date"`
	Status      string    `json:"status"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *DueReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DueReminderMessageFromJSON creates a message from JSON bytes
func DueReminderMessageFromJSON(data []byte) (*DueReminderMessage, error) {
	var msg DueReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
