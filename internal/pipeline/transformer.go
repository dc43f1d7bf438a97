// Package pipeline adapts badge method calls arriving over a message stream
// onto the bridge.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-badge/internal/bridge"
)

var errMissingMethod = errors.New("method is required")

// BadgeCommandTransformer decodes a message payload into a bridge.MethodCall.
// Undecodable payloads are skipped with an error so the consumer can dead-letter them.
func BadgeCommandTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*bridge.MethodCall, bool, error) {
	var call bridge.MethodCall

	decoder := json.NewDecoder(bytes.NewReader(msg.Payload))
	decoder.UseNumber()
	if err := decoder.Decode(&call); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal badge command from message %s: %w", msg.ID, err)
	}
	if call.Method == "" {
		return nil, true, fmt.Errorf("invalid badge command in message %s: %w", msg.ID, errMissingMethod)
	}

	return &call, false, nil
}
