package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Account holds the credentials of one mailbox.
type Account struct {
	Host     string // host:port, TLS
	Username string
	Password string
}

// Message is an inbound email reduced to what the inbox stores.
type Message struct {
	MessageID string
	From      string
	To        string
	Subject   string
	Body      string
	Date      time.Time
}

// Fetcher reads recent INBOX messages over IMAP.
type Fetcher struct {
	dialTimeout time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{dialTimeout: 30 * time.Second}
}

// FetchSince returns up to limit INBOX messages received on or after since.
func (f *Fetcher) FetchSince(ctx context.Context, acc Account, since time.Time, limit int) ([]Message, error) {
	if acc.Host == "" {
		return nil, fmt.Errorf("imap host is required")
	}
	host := acc.Host
	if !strings.Contains(host, ":") {
		host += ":993"
	}

	dialer := &netDialer{timeout: f.dialTimeout}
	c, err := client.DialWithDialerTLS(dialer, host, &tls.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	defer c.Logout()

	// abort a stuck session when the caller gives up
	stop := context.AfterFunc(ctx, func() { c.Terminate() })
	defer stop()

	if err := c.Login(acc.Username, acc.Password); err != nil {
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	if !since.IsZero() {
		criteria.Since = since
	}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search failed: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}
	// newest last
	if limit > 0 && len(seqNums) > limit {
		seqNums = seqNums[len(seqNums)-limit:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var out []Message
	for msg := range messages {
		m := fromEnvelope(msg)
		if body := msg.GetBody(section); body != nil {
			text, err := ExtractText(body)
			if err != nil {
				log.Printf("[IMAP] Could not parse body of %s: %v", m.MessageID, err)
			}
			m.Body = text
		}
		if m.Body == "" {
			m.Body = m.Subject
		}
		out = append(out, m)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch failed: %w", err)
	}

	log.Printf("[IMAP] Fetched %d messages for %s", len(out), acc.Username)
	return out, nil
}

func fromEnvelope(msg *imap.Message) Message {
	var m Message
	if msg.Envelope == nil {
		return m
	}
	if len(msg.Envelope.From) > 0 {
		m.From = msg.Envelope.From[0].Address()
	}
	if len(msg.Envelope.To) > 0 {
		m.To = msg.Envelope.To[0].Address()
	}
	m.Subject = msg.Envelope.Subject
	m.Date = msg.Envelope.Date
	m.MessageID = msg.Envelope.MessageId
	return m
}

// ExtractText returns the first text/plain part of a raw RFC 5322 message,
// falling back to the first text/html part.
func ExtractText(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", err
	}

	var html string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return html, err
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return html, err
		}
		switch ct {
		case "text/plain":
			return strings.TrimSpace(string(b)), nil
		case "text/html":
			if html == "" {
				html = strings.TrimSpace(string(b))
			}
		}
	}
	return html, nil
}
