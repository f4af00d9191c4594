package domain

import "time"

type Direction string

// MaxClassifyAttempts is how many failed classifications a message gets
// before the classifier stops picking it up.
const MaxClassifyAttempts = 3

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Message is one email tied to an application. StatusExtracted is the label
// inferred from this message and may disagree with the application's status.
type Message struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	ApplicationID    string    `json:"application_id" gorm:"index;not null"`
	Direction        Direction `json:"direction" gorm:"index;not null"`
	FromEmail        string    `json:"from_email"`
	ToEmail          string    `json:"to_email"`
	Subject          string    `json:"subject"`
	Body             string    `json:"body"`
	ReceivedAt       time.Time `json:"received_at" gorm:"index"`
	Processed        bool      `json:"processed" gorm:"index;default:false"`
	StatusExtracted  *string   `json:"status_extracted,omitempty"`
	ClassifyAttempts int       `json:"classify_attempts" gorm:"default:0"`
	ExternalID       string    `json:"external_id,omitempty" gorm:"index"`
	CreatedAt        time.Time `json:"created_at"`
}

// InboxMessage is a received message decorated with its application's display fields.
type InboxMessage struct {
	Message  `gorm:"embedded"`
	UserID   string `json:"user_id"`
	Position string `json:"position"`
	Company  string `json:"company"`
}
