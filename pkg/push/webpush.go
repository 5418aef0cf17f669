// Package push delivers web-push notifications to driver devices using the
// standard VAPID protocol. Delivery is best-effort; failures are logged by
// callers and never fail the triggering operation.
package push

import (
	"encoding/json"
	"fmt"

	"courier-dispatch/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Notification is the payload shown on the driver's device.
type Notification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	OrderID string `json:"orderId,omitempty"`
}

// SenderInterface is the contract consumed by the orders service.
type SenderInterface interface {
	Configured() bool
	Send(subscription []byte, n Notification) error
}

// Sender sends notifications signed with the configured VAPID key pair.
type Sender struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewSender builds a sender. Missing VAPID keys yield an unconfigured sender.
func NewSender(publicKey, privateKey, subscriber string) *Sender {
	return &Sender{publicKey: publicKey, privateKey: privateKey, subscriber: subscriber}
}

func (s *Sender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// Send pushes the notification to the raw subscription JSON stored on the
// driver record.
func (s *Sender) Send(subscription []byte, n Notification) error {
	if !s.Configured() {
		return models.ErrUnconfigured
	}
	if len(subscription) == 0 {
		return fmt.Errorf("push.Send: driver has no subscription")
	}

	sub := &webpush.Subscription{}
	if err := json.Unmarshal(subscription, sub); err != nil {
		return fmt.Errorf("push.Send: bad subscription payload: %w", err)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("push.Send: marshal: %w", err)
	}

	resp, err := webpush.SendNotification(payload, sub, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("push.Send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push.Send: push service returned %d", resp.StatusCode)
	}
	return nil
}
