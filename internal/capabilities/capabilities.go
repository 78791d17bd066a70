// Package capabilities is the pluggable authorization layer. Every mutation
// or query touching chat-scoped data consults it before touching the store.
package capabilities

import (
	"context"

	"go.uber.org/zap"

	"chat-core/internal/models"
	"chat-core/internal/observability"
)

// Subject is the closed set of things a capability can gate.
type Subject string

const (
	SubjectMessages Subject = "MESSAGES"
	SubjectImages   Subject = "IMAGES"
	SubjectChat     Subject = "CHAT"
	SubjectThreads  Subject = "THREADS"
)

// Action is the closed set of gated actions.
type Action string

const (
	ActionSend   Action = "SEND"
	ActionView   Action = "VIEW"
	ActionUpload Action = "UPLOAD"
	ActionCreate Action = "CREATE"
)

// ParseSubject validates a caller-supplied subject name.
func ParseSubject(s string) (Subject, bool) {
	switch Subject(s) {
	case SubjectMessages, SubjectImages, SubjectChat, SubjectThreads:
		return Subject(s), true
	}
	return "", false
}

// ParseAction validates a caller-supplied action name.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionSend, ActionView, ActionUpload, ActionCreate:
		return Action(s), true
	}
	return "", false
}

// Per-chat capability names stored in the relational store.
const (
	CapabilityCanSendMessages = "CAN_SEND_MESSAGES"
	CapabilityPictureUpload   = "PICTURE_UPLOAD"
	CapabilityThreads         = "THREADS"
)

// Context carries the chat scope of a capability check, when there is one.
type Context struct {
	ChatID string
}

// Policy decides whether an action on its subject is allowed.
type Policy interface {
	Subject() Subject
	Can(ctx context.Context, action Action, cc Context) (bool, error)
}

// ChatCapabilityReader loads per-chat capability overrides. A nil capability
// means no override is set for that chat.
type ChatCapabilityReader interface {
	GetChatCapability(ctx context.Context, chatID, capability string) (*models.ChatCapability, error)
}

// Registry maps subjects to their policy. Lookups are O(1); unknown subjects
// are denied.
type Registry struct {
	policies map[Subject]Policy
	logger   *zap.Logger
}

// NewRegistry builds a registry from the given policies.
func NewRegistry(logger *zap.Logger, policies ...Policy) *Registry {
	bySubject := make(map[Subject]Policy, len(policies))
	for _, p := range policies {
		bySubject[p.Subject()] = p
	}
	return &Registry{policies: bySubject, logger: logger}
}

// Can dispatches the check to the subject's policy. Unknown subjects log a
// warning and deny.
func (r *Registry) Can(ctx context.Context, action Action, subject Subject, cc Context) (bool, error) {
	policy, ok := r.policies[subject]
	if !ok {
		r.logger.Warn("capability check for unknown subject denied",
			zap.String("subject", string(subject)),
			zap.String("action", string(action)))
		observability.IncCapabilityDecision(string(subject), string(action), false)
		return false, nil
	}

	allowed, err := policy.Can(ctx, action, cc)
	if err != nil {
		return false, err
	}
	observability.IncCapabilityDecision(string(subject), string(action), allowed)
	return allowed, nil
}
