package domain

import "time"

// Mailbox is where a user's application emails are sent from and replies
// arrive. An empty IMAPHost means replies are simulated.
type Mailbox struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	UserID        string     `json:"user_id" gorm:"uniqueIndex;not null"`
	EmailAddress  string     `json:"email_address" gorm:"not null"`
	IMAPHost      string     `json:"imap_host,omitempty"` // host:port, TLS
	IMAPUsername  string     `json:"imap_username,omitempty"`
	IMAPPassword  string     `json:"-"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (m *Mailbox) UsesIMAP() bool {
	return m.IMAPHost != ""
}
