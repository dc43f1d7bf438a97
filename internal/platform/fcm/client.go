// Package fcm carries badge traffic over Firebase Cloud Messaging: badge
// pushes to registered devices, and a relay that forwards launcher OS calls
// to an on-device receiver as data messages.
package fcm

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// *messaging.Client satisfies it.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}
