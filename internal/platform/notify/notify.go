// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package notify hands credential mail and SMS to the delivery provider.
//
// Delivery is fire-and-forget: callers never wait on it and a failed send
// never fails the request that triggered it.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Templates understood by the delivery provider.
const (
	TemplateSendCredentials = "SendCredentials"
	TemplateResetPassword   = "ResetPassword"
	TemplateLoginOTP        = "LoginOTP"
)

// Message is one outbound notification.
type Message struct {
	Recipient string
	Template  string
	Data      map[string]string
}

// Notifier dispatches messages asynchronously.
type Notifier interface {
	Send(ctx context.Context, message Message)
}

// LogNotifier records every message as a structured log event.
//
// Template data usually carries secrets (codes, passwords, reset tokens), so
// only the keys are logged unless revealData is set for local development.
type LogNotifier struct {
	logger     *slog.Logger
	sender     string
	revealData bool
	wg         sync.WaitGroup
}

// NewLogNotifier creates a LogNotifier sending from sender.
func NewLogNotifier(logger *slog.Logger, sender string, revealData bool) *LogNotifier {
	return &LogNotifier{logger: logger, sender: sender, revealData: revealData}
}

// Send dispatches message in the background.
func (n *LogNotifier) Send(ctx context.Context, message Message) {
	// The request context is cancelled as soon as the handler returns.
	detached := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		attributes := []any{
			slog.String("from", n.sender),
			slog.String("recipient", message.Recipient),
			slog.String("template", message.Template),
		}

		if n.revealData {
			attributes = append(attributes, slog.Any("data", message.Data))
		} else {
			keys := make([]string, 0, len(message.Data))
			for key := range message.Data {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			attributes = append(attributes, slog.Any("data_keys", keys))
		}

		n.logger.InfoContext(detached, "mail_dispatched", attributes...)
	}()
}

// Wait blocks until every dispatched message has been handled. It is called
// during shutdown.
func (n *LogNotifier) Wait() {
	n.wg.Wait()
}
