package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"jobmatch-backend/internal/application/domain"
	"jobmatch-backend/pkg/fcm"
)

type recordedEvent struct {
	userID string
	event  string
	data   interface{}
}

type fakeStream struct {
	events []recordedEvent
}

func (f *fakeStream) SendToUser(userID, event string, data interface{}) {
	f.events = append(f.events, recordedEvent{userID, event, data})
}

type fakeTokens struct {
	mu      sync.Mutex
	tokens  []string
	deleted []string
}

func (f *fakeTokens) Register(userID, token, deviceInfo string) error { return nil }
func (f *fakeTokens) TokensForUser(userID string) ([]string, error)   { return f.tokens, nil }
func (f *fakeTokens) Remove(userID, token string) error               { return nil }
func (f *fakeTokens) Prune(tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, tokens...)
	return nil
}

type fakePush struct {
	mu     sync.Mutex
	pushes []fcm.Push
	failed []string
}

func (f *fakePush) SendToDevices(ctx context.Context, tokens []string, push fcm.Push) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, push)
	return f.failed, nil
}

func TestNotifyUserStreamsAndPushes(t *testing.T) {
	stream := &fakeStream{}
	tokens := &fakeTokens{tokens: []string{"good", "stale"}}
	push := &fakePush{failed: []string{"stale"}}
	s := &Service{stream: stream, devices: tokens, fcmClient: push}

	s.NotifyUser(context.Background(), "u1", domain.Notification{
		Event: "responses_arrived",
		Title: "Companies Have Responded!",
		Body:  "You have 2 positive responses! Check your Inbox.",
		Link:  "/inbox",
		Data:  map[string]interface{}{"positive": 2},
	})
	s.Wait()

	if len(stream.events) != 1 || stream.events[0].userID != "u1" || stream.events[0].event != "responses_arrived" {
		t.Fatalf("stream events = %+v", stream.events)
	}
	if len(push.pushes) != 1 {
		t.Fatalf("pushes = %d", len(push.pushes))
	}
	p := push.pushes[0]
	if p.Link != "/inbox" || p.Data["positive"] != "2" || p.Data["type"] != "responses_arrived" {
		t.Fatalf("push = %+v", p)
	}
	if len(tokens.deleted) != 1 || tokens.deleted[0] != "stale" {
		t.Fatalf("deleted = %v", tokens.deleted)
	}
}

func TestNotifyUserWithoutPush(t *testing.T) {
	stream := &fakeStream{}
	s := NewService(stream, &fakeTokens{}, nil)
	s.NotifyUser(context.Background(), "u1", domain.Notification{Event: "status_changed"})
	s.Wait()
	if len(stream.events) != 1 {
		t.Fatalf("stream events = %+v", stream.events)
	}
}

type fakeJSONPublisher struct {
	payload interface{}
	attrs   map[string]string
	err     error
}

func (f *fakeJSONPublisher) PublishJSON(ctx context.Context, payload interface{}, attributes map[string]string) (string, error) {
	f.payload = payload
	f.attrs = attributes
	return "msg-1", f.err
}

func TestStatusEventPublisher(t *testing.T) {
	pub := &fakeJSONPublisher{}
	ev := &domain.StatusEvent{ApplicationID: "a1", UserID: "u1", FromStatus: domain.StatusApplied, ToStatus: domain.StatusRejected, Source: domain.SourceSimulator}

	if err := NewStatusEventPublisher(pub).PublishStatusEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if pub.payload != ev || pub.attrs["to_status"] != "rejected" || pub.attrs["application_id"] != "a1" {
		t.Fatalf("published %+v with %v", pub.payload, pub.attrs)
	}

	pub.err = errors.New("topic deleted")
	if err := NewStatusEventPublisher(pub).PublishStatusEvent(context.Background(), ev); err == nil {
		t.Fatal("expected an error")
	}
}
