// Package gateway is the boundary to the chat platform's API.
package gateway

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the channel, thread or member does not exist.
	ErrNotFound = errors.New("gateway: not found")
	// ErrForbidden means the bot lacks permission for the call.
	ErrForbidden = errors.New("gateway: missing permissions")
)

// ChannelKind classifies channels.
type ChannelKind string

const (
	KindCategory ChannelKind = "category"
	KindText     ChannelKind = "text"
	KindThread   ChannelKind = "thread"
	KindOther    ChannelKind = "other"
)

// Channel is the subset of channel data the ticket engine needs.
type Channel struct {
	ID        string
	GuildID   string
	ParentID  string
	Name      string
	Kind      ChannelKind
	Archived  bool
	Locked    bool
	CreatedAt time.Time
}

// IsThread reports whether the channel is a thread.
func (c *Channel) IsThread() bool {
	return c != nil && c.Kind == KindThread
}

// ButtonStyle picks a button color.
type ButtonStyle string

const (
	ButtonPrimary ButtonStyle = "primary"
	ButtonSuccess ButtonStyle = "success"
	ButtonDanger  ButtonStyle = "danger"
)

// Button is a persistent message button identified by CustomID.
type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Embed is a rich notice.
type Embed struct {
	Title       string
	Description string
	Color       int
	Footer      string
	Timestamp   time.Time
}

// Message is an outbound message. Only the listed users and roles are pinged.
type Message struct {
	Content        string
	Embed          *Embed
	Buttons        []Button
	Ephemeral      bool
	MentionUserIDs []string
	MentionRoleIDs []string
}

// InteractionRef identifies an interaction for follow-up messages.
type InteractionRef struct {
	ID            string
	ApplicationID string
	Token         string
}

// Gateway is the set of platform calls the ticket engine consumes.
type Gateway interface {
	Channel(ctx context.Context, channelID string) (*Channel, error)
	// FindTextChannel returns nil, nil when no text channel has that name.
	FindTextChannel(ctx context.Context, guildID, name string) (*Channel, error)
	CreateCategory(ctx context.Context, guildID, name string) (*Channel, error)
	CreateTextChannel(ctx context.Context, guildID, name, parentID, topic string) (*Channel, error)
	CreatePrivateThread(ctx context.Context, channelID, name, reason string) (*Channel, error)
	// ListThreads returns active and archived private threads under channelID.
	ListThreads(ctx context.Context, guildID, channelID string) ([]Channel, error)
	// SetThreadArchived archives and locks, or unarchives and unlocks, a thread.
	SetThreadArchived(ctx context.Context, threadID string, archived bool) error
	DeleteChannel(ctx context.Context, channelID string) error
	AddThreadMember(ctx context.Context, threadID, userID string) error
	ThreadMemberIDs(ctx context.Context, threadID string) ([]string, error)
	SendMessage(ctx context.Context, channelID string, msg Message) error
	PurgeRecent(ctx context.Context, channelID string, limit int) error
	Followup(ctx context.Context, ref InteractionRef, msg Message) error
}
