package capabilities

import (
	"context"

	"go.uber.org/zap"

	"chat-core/internal/flags"
)

// MessagePolicy gates sending and viewing messages.
type MessagePolicy struct {
	flags  flags.Store
	caps   ChatCapabilityReader
	logger *zap.Logger
}

func NewMessagePolicy(flagStore flags.Store, caps ChatCapabilityReader, logger *zap.Logger) *MessagePolicy {
	return &MessagePolicy{flags: flagStore, caps: caps, logger: logger}
}

func (p *MessagePolicy) Subject() Subject { return SubjectMessages }

func (p *MessagePolicy) Can(ctx context.Context, action Action, cc Context) (bool, error) {
	switch action {
	case ActionSend:
		return p.canSend(ctx, cc.ChatID)
	case ActionView:
		// Membership checks are the caller's concern; a chat scope is all
		// that is required here.
		return cc.ChatID != "", nil
	default:
		return false, nil
	}
}

func (p *MessagePolicy) canSend(ctx context.Context, chatID string) (bool, error) {
	enabled, err := p.flags.GetFlag(ctx, flags.FlagSendMessages, true)
	if err != nil {
		// The flag cache tolerates staleness; fall back to the default
		// rather than blocking the send path.
		p.logger.Warn("flag lookup failed, using default", zap.String("flag", flags.FlagSendMessages), zap.Error(err))
		enabled = true
	}
	if !enabled {
		return false, nil
	}

	if chatID == "" {
		return true, nil
	}
	capability, err := p.caps.GetChatCapability(ctx, chatID, CapabilityCanSendMessages)
	if err != nil {
		return false, err
	}
	if capability != nil && !capability.Enabled {
		return false, nil
	}
	return true, nil
}

// ImagePolicy gates media uploads. Uploads are denied unless the chat has the
// picture-upload capability explicitly enabled.
type ImagePolicy struct {
	caps ChatCapabilityReader
}

func NewImagePolicy(caps ChatCapabilityReader) *ImagePolicy {
	return &ImagePolicy{caps: caps}
}

func (p *ImagePolicy) Subject() Subject { return SubjectImages }

func (p *ImagePolicy) Can(ctx context.Context, action Action, cc Context) (bool, error) {
	if action != ActionUpload {
		return false, nil
	}
	if cc.ChatID == "" {
		return false, nil
	}
	capability, err := p.caps.GetChatCapability(ctx, cc.ChatID, CapabilityPictureUpload)
	if err != nil {
		return false, err
	}
	return capability != nil && capability.Enabled, nil
}

// ChatPolicy gates chat creation behind a global flag.
type ChatPolicy struct {
	flags  flags.Store
	logger *zap.Logger
}

func NewChatPolicy(flagStore flags.Store, logger *zap.Logger) *ChatPolicy {
	return &ChatPolicy{flags: flagStore, logger: logger}
}

func (p *ChatPolicy) Subject() Subject { return SubjectChat }

func (p *ChatPolicy) Can(ctx context.Context, action Action, _ Context) (bool, error) {
	if action != ActionCreate {
		return false, nil
	}
	enabled, err := p.flags.GetFlag(ctx, flags.FlagCreateChatsEnabled, true)
	if err != nil {
		p.logger.Warn("flag lookup failed, using default", zap.String("flag", flags.FlagCreateChatsEnabled), zap.Error(err))
		enabled = true
	}
	return enabled, nil
}

// ThreadPolicy gates thread creation per chat. Threads are enabled unless a
// chat explicitly disables them.
type ThreadPolicy struct {
	caps ChatCapabilityReader
}

func NewThreadPolicy(caps ChatCapabilityReader) *ThreadPolicy {
	return &ThreadPolicy{caps: caps}
}

func (p *ThreadPolicy) Subject() Subject { return SubjectThreads }

func (p *ThreadPolicy) Can(ctx context.Context, action Action, cc Context) (bool, error) {
	if action != ActionCreate {
		return false, nil
	}
	if cc.ChatID == "" {
		return false, nil
	}
	capability, err := p.caps.GetChatCapability(ctx, cc.ChatID, CapabilityThreads)
	if err != nil {
		return false, err
	}
	if capability == nil {
		return true, nil
	}
	return capability.Enabled, nil
}
