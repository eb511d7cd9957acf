package domain

// Event types
const (
	EventTypeTransactionRecorded = "transaction.recorded"
)

// TransactionRecordedEvent payload
type TransactionRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	SenderID      string `json:"sender_id"`
	ReceiverID    string `json:"receiver_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
}
