package session

import (
	"context"

	"github.com/georgemunganga/mama-web/internal/modules/storage"
)

const keyToast = storage.KeyToast

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastWarning = "warning"
	ToastInfo    = "info"
)

// ToastMessage is a transient notification shown once.
type ToastMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Toast queues a notification for the next rendered page.
func Toast(ctx context.Context, kind, message string) {
	b := FromContext(ctx)
	var queued []ToastMessage
	_, _ = b.GetJSON(ctx, keyToast, &queued)
	queued = append(queued, ToastMessage{Kind: kind, Message: message})
	_ = b.SetJSON(ctx, keyToast, queued)
}

// PopToasts returns queued notifications and clears them.
func PopToasts(ctx context.Context) []ToastMessage {
	b := FromContext(ctx)
	var queued []ToastMessage
	if ok, err := b.GetJSON(ctx, keyToast, &queued); err != nil || !ok {
		return nil
	}
	_ = b.Remove(ctx, keyToast)
	return queued
}
