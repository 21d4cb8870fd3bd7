package notifier

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"review-notify-backend/internal/model"
	"review-notify-backend/internal/store"
)

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of PushSender using the webpush
// library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

type pushJob struct {
	userID  uuid.UUID
	payload []byte
}

// PushPool manages a pool of workers delivering web pushes to the device
// tokens of users who have no live websocket connection.
type PushPool struct {
	size    int
	jobs    chan pushJob
	store   store.Store
	options *webpush.Options
	sender  PushSender
}

// NewPushPool creates a new push worker pool.
func NewPushPool(size int, s store.Store, options *webpush.Options) *PushPool {
	return &PushPool{
		size:    size,
		jobs:    make(chan pushJob, size*4),
		store:   s,
		options: options,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (p *PushPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

// Dispatch enqueues a delivery job. Delivery is best-effort: when the queue
// is full the job is dropped rather than blocking the caller.
func (p *PushPool) Dispatch(userID uuid.UUID, payload []byte) {
	select {
	case p.jobs <- pushJob{userID: userID, payload: payload}:
	default:
		log.Printf("Push queue full, dropping web push for user %s", userID)
	}
}

func (p *PushPool) worker(ctx context.Context, id int) {
	log.Printf("Push worker %d started", id)
	for {
		select {
		case job := <-p.jobs:
			p.deliver(ctx, job)
		case <-ctx.Done():
			log.Printf("Push worker %d shutting down", id)
			return
		}
	}
}

// deliver sends the payload to every web-platform token of the user. Tokens
// rejected by the push service as gone are deleted.
func (p *PushPool) deliver(ctx context.Context, job pushJob) {
	tokens, err := p.store.DeviceTokensFor(ctx, job.userID)
	if err != nil {
		log.Printf("Error fetching device tokens for user %s: %v", job.userID, err)
		return
	}

	for _, t := range tokens {
		if t.Platform != model.PlatformWeb {
			continue
		}
		p.send(ctx, t, job.payload)
	}
}

func (p *PushPool) send(ctx context.Context, t model.DeviceToken, payload []byte) {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(t.Token), &sub); err != nil {
		log.Printf("Device token of user %s is not a web push subscription: %v", t.UserID, err)
		return
	}

	resp, err := p.sender.Send(payload, &sub, p.options)
	if err != nil {
		log.Printf("Error sending web push to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		log.Printf("Web push subscription %s is gone. Deleting token.", sub.Endpoint)
		if err := p.store.RemoveDeviceToken(ctx, t.Token); err != nil {
			log.Printf("Failed to delete expired token %s: %v", sub.Endpoint, err)
		}
	case resp.StatusCode < 300:
		if err := p.store.TouchDeviceToken(ctx, t.Token); err != nil {
			log.Printf("Failed to refresh token %s: %v", sub.Endpoint, err)
		}
	}
}
