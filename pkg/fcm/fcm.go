package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Client sends push notifications through Firebase Cloud Messaging.
type Client struct {
	messaging *messaging.Client
}

// NewClient initializes Firebase with an optional service account file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized")
	return &Client{messaging: mc}, nil
}

// Push is the content of one notification.
type Push struct {
	Title string
	Body  string
	// Link is opened by the web client when the notification is clicked.
	Link string
	Data map[string]string
}

func (p Push) multicast(tokens []string) *messaging.MulticastMessage {
	data := make(map[string]string, len(p.Data)+1)
	for k, v := range p.Data {
		data[k] = v
	}
	if p.Link != "" {
		data["click_action"] = p.Link
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: p.Title,
				Body:  p.Body,
				Icon:  "/icon-192.svg",
			},
		},
	}
	if p.Link != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: p.Link}
	}
	return msg
}

// SendToDevices pushes to every token and returns the tokens FCM rejected,
// so the caller can forget them.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, push Push) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	resp, err := c.messaging.SendEachForMulticast(ctx, push.multicast(tokens))
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast: %w", err)
	}

	log.Printf("[FCM] Multicast sent: %d success, %d failures", resp.SuccessCount, resp.FailureCount)

	var failed []string
	for i, r := range resp.Responses {
		if !r.Success {
			failed = append(failed, tokens[i])
			log.Printf("[FCM] Delivery to token %s failed: %v", shortToken(tokens[i]), r.Error)
		}
	}
	return failed, nil
}

func shortToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
