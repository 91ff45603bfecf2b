// Package notify sends the workout reminder after an entry is saved.
package notify

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const (
	ReminderTitle   = "Workout Reminder"
	ReminderMessage = "Time to hit the gym!"
)

// ErrNotAvailable means the push channel cannot deliver to the user, either
// because push is not configured or the user registered no device.
var ErrNotAvailable = errors.New("push notifications are not available")

// PushChannel delivers remote notifications.
type PushChannel interface {
	RequestDeliveryToken(ctx context.Context, userID string) (string, error)
	Publish(ctx context.Context, token, title, message string) error
}

// LocalSink shows a notification inside the view that saved the entry.
type LocalSink interface {
	PostLocalNotification(title, message string)
}

// Trigger fires reminders in the background. Fire never blocks the caller and
// never reports an error; outcomes only reach the log and metrics.
type Trigger struct {
	channel PushChannel
	timeout time.Duration
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewTrigger creates a Trigger publishing through channel.
func NewTrigger(channel PushChannel, timeout time.Duration, m *metrics.Metrics) *Trigger {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Trigger{channel: channel, timeout: timeout, metrics: m}
}

// Fire sends the reminder to userID's devices and to local, which may be nil.
func (t *Trigger) Fire(userID string, local LocalSink) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: notification for user %s panicked: %v", userID, r)
				t.metrics.Notification("push", "error")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.push(ctx, userID)

		if local != nil {
			local.PostLocalNotification(ReminderTitle, ReminderMessage)
			t.metrics.Notification("local", "sent")
		}
	}()
}

func (t *Trigger) push(ctx context.Context, userID string) {
	token, err := t.channel.RequestDeliveryToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotAvailable) {
			t.metrics.Notification("push", "unavailable")
			return
		}
		log.Printf("WARN: failed to get delivery token for user %s: %v", userID, err)
		t.metrics.Notification("push", "error")
		return
	}
	if err := t.channel.Publish(ctx, token, ReminderTitle, ReminderMessage); err != nil {
		log.Printf("WARN: failed to publish reminder for user %s: %v", userID, err)
		t.metrics.Notification("push", "error")
		return
	}
	t.metrics.Notification("push", "sent")
}

// Wait blocks until every fired notification has finished.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Disabled is the push channel used when push is not configured.
type Disabled struct{}

func (Disabled) RequestDeliveryToken(context.Context, string) (string, error) {
	return "", ErrNotAvailable
}

func (Disabled) Publish(context.Context, string, string, string) error {
	return ErrNotAvailable
}

func (Disabled) RegisterDevice(context.Context, string, string, string) (*domain.Device, error) {
	return nil, ErrNotAvailable
}
