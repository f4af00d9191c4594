package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"jobmatch-backend/internal/application/domain"
	authrepo "jobmatch-backend/internal/auth/repository"
	"jobmatch-backend/pkg/fcm"
)

// eventStream is the live channel to open browser tabs (pkg/sse).
type eventStream interface {
	SendToUser(userID, event string, data interface{})
}

// pushSender delivers to registered devices (pkg/fcm).
type pushSender interface {
	SendToDevices(ctx context.Context, tokens []string, push fcm.Push) ([]string, error)
}

// Service fans user notifications out to SSE and, when configured, FCM push.
type Service struct {
	stream    eventStream
	devices   authrepo.PushDeviceRepository
	fcmClient pushSender
	pending   sync.WaitGroup
}

func NewService(stream eventStream, devices authrepo.PushDeviceRepository, fcmClient *fcm.Client) *Service {
	s := &Service{stream: stream, devices: devices}
	// a nil *fcm.Client must stay a nil interface
	if fcmClient != nil {
		s.fcmClient = fcmClient
	}
	return s
}

// NotifyUser sends n over SSE right away and pushes it to the user's devices
// in the background. Failures are logged, never returned.
func (s *Service) NotifyUser(ctx context.Context, userID string, n domain.Notification) {
	if s.stream != nil {
		s.stream.SendToUser(userID, n.Event, map[string]interface{}{
			"title":     n.Title,
			"body":      n.Body,
			"link":      n.Link,
			"data":      n.Data,
			"timestamp": time.Now(),
		})
	}

	if s.fcmClient == nil || s.devices == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.push(userID, n)
	}()
}

// Wait blocks until queued pushes are sent.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) push(userID string, n domain.Notification) {
	tokens, err := s.devices.TokensForUser(userID)
	if err != nil {
		log.Printf("[FCM] Error getting FCM tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{"type": n.Event}
	for k, v := range n.Data {
		data[k] = fmt.Sprint(v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	failed, err := s.fcmClient.SendToDevices(ctx, tokens, fcm.Push{
		Title: n.Title,
		Body:  n.Body,
		Link:  n.Link,
		Data:  data,
	})
	if err != nil {
		log.Printf("[FCM] Error sending %s to user %s: %v", n.Event, userID, err)
		return
	}
	log.Printf("[FCM] Sent %s to %d devices", n.Event, len(tokens)-len(failed))

	if err := s.devices.Prune(failed); err != nil {
		log.Printf("[FCM] Failed to delete stale tokens: %v", err)
	}
}
