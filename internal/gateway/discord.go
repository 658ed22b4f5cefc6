package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

const (
	privateThreadArchiveMinutes = 10080
	archivedPageSize            = 100
	maxArchivedPages            = 10
)

// DiscordGateway implements Gateway over the Discord REST API. It does not
// open a websocket; interactions arrive over HTTP.
type DiscordGateway struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewDiscordSession builds a REST session whose HTTP client enforces timeout.
func NewDiscordSession(token string, timeout time.Duration) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		session.Client = &http.Client{Timeout: timeout}
	}
	return session, nil
}

// NewDiscordGateway wraps an authenticated session.
func NewDiscordGateway(session *discordgo.Session, logger *zap.Logger) *DiscordGateway {
	return &DiscordGateway{session: session, logger: logger}
}

func (g *DiscordGateway) Channel(ctx context.Context, channelID string) (*Channel, error) {
	ch, err := g.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, normalize(err)
	}
	return toChannel(ch), nil
}

func (g *DiscordGateway) FindTextChannel(ctx context.Context, guildID, name string) (*Channel, error) {
	channels, err := g.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, normalize(err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return toChannel(ch), nil
		}
	}
	return nil, nil
}

func (g *DiscordGateway) CreateCategory(ctx context.Context, guildID, name string) (*Channel, error) {
	ch, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, normalize(err)
	}
	return toChannel(ch), nil
}

func (g *DiscordGateway) CreateTextChannel(ctx context.Context, guildID, name, parentID, topic string) (*Channel, error) {
	ch, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    topic,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, normalize(err)
	}
	return toChannel(ch), nil
}

func (g *DiscordGateway) CreatePrivateThread(ctx context.Context, channelID, name, reason string) (*Channel, error) {
	ch, err := g.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: privateThreadArchiveMinutes,
		Invitable:           false,
	}, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	if err != nil {
		return nil, normalize(err)
	}
	return toChannel(ch), nil
}

func (g *DiscordGateway) ListThreads(ctx context.Context, guildID, channelID string) ([]Channel, error) {
	active, err := g.session.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, normalize(err)
	}

	seen := make(map[string]struct{})
	result := make([]Channel, 0, len(active.Threads))
	add := func(ch *discordgo.Channel) {
		if ch.ParentID != channelID {
			return
		}
		if _, dup := seen[ch.ID]; dup {
			return
		}
		seen[ch.ID] = struct{}{}
		result = append(result, *toChannel(ch))
	}
	for _, ch := range active.Threads {
		add(ch)
	}

	var before *time.Time
	for page := 0; page < maxArchivedPages; page++ {
		archived, err := g.session.ThreadsPrivateArchived(channelID, before, archivedPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, normalize(err)
		}
		for _, ch := range archived.Threads {
			add(ch)
		}
		if !archived.HasMore || len(archived.Threads) == 0 {
			break
		}
		if page == maxArchivedPages-1 {
			g.logger.Warn("archived thread listing truncated", zap.String("channel_id", channelID))
			break
		}
		last := archived.Threads[len(archived.Threads)-1]
		if last.ThreadMetadata == nil {
			break
		}
		ts := last.ThreadMetadata.ArchiveTimestamp
		before = &ts
	}
	return result, nil
}

func (g *DiscordGateway) SetThreadArchived(ctx context.Context, threadID string, archived bool) error {
	_, err := g.session.ChannelEdit(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &archived,
	}, discordgo.WithContext(ctx))
	return normalize(err)
}

func (g *DiscordGateway) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return normalize(err)
}

func (g *DiscordGateway) AddThreadMember(ctx context.Context, threadID, userID string) error {
	return normalize(g.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)))
}

func (g *DiscordGateway) ThreadMemberIDs(ctx context.Context, threadID string) ([]string, error) {
	var (
		ids   []string
		after string
	)
	for {
		members, err := g.session.ThreadMembers(threadID, 100, false, after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, normalize(err)
		}
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		if len(members) < 100 {
			return ids, nil
		}
		after = members[len(members)-1].UserID
	}
}

func (g *DiscordGateway) SendMessage(ctx context.Context, channelID string, msg Message) error {
	_, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         msg.Content,
		Embeds:          toEmbeds(msg.Embed),
		Components:      toComponents(msg.Buttons),
		AllowedMentions: toAllowedMentions(msg),
	}, discordgo.WithContext(ctx))
	return normalize(err)
}

func (g *DiscordGateway) PurgeRecent(ctx context.Context, channelID string, limit int) error {
	messages, err := g.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return normalize(err)
	}
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return normalize(g.session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx)))
}

func (g *DiscordGateway) Followup(ctx context.Context, ref InteractionRef, msg Message) error {
	params := &discordgo.WebhookParams{
		Content:         msg.Content,
		Embeds:          toEmbeds(msg.Embed),
		Components:      toComponents(msg.Buttons),
		AllowedMentions: toAllowedMentions(msg),
	}
	if msg.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	interaction := &discordgo.Interaction{ID: ref.ID, AppID: ref.ApplicationID, Token: ref.Token}
	_, err := g.session.FollowupMessageCreate(interaction, false, params, discordgo.WithContext(ctx))
	return normalize(err)
}

func normalize(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}

func toChannel(ch *discordgo.Channel) *Channel {
	out := &Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		ParentID: ch.ParentID,
		Name:     ch.Name,
	}
	switch {
	case ch.IsThread():
		out.Kind = KindThread
	case ch.Type == discordgo.ChannelTypeGuildCategory:
		out.Kind = KindCategory
	case ch.Type == discordgo.ChannelTypeGuildText:
		out.Kind = KindText
	default:
		out.Kind = KindOther
	}
	if ch.ThreadMetadata != nil {
		out.Archived = ch.ThreadMetadata.Archived
		out.Locked = ch.ThreadMetadata.Locked
	}
	if created, ok := domain.IDTime(ch.ID); ok {
		out.CreatedAt = created
	}
	return out
}

func toEmbeds(embed *Embed) []*discordgo.MessageEmbed {
	if embed == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if embed.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	if !embed.Timestamp.IsZero() {
		out.Timestamp = embed.Timestamp.UTC().Format(time.RFC3339)
	}
	return []*discordgo.MessageEmbed{out}
}

func toComponents(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			CustomID: b.CustomID,
			Style:    toButtonStyle(b.Style),
		})
	}
	return []discordgo.MessageComponent{row}
}

func toButtonStyle(style ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case ButtonSuccess:
		return discordgo.SuccessButton
	case ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

func toAllowedMentions(msg Message) *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Users: msg.MentionUserIDs,
		Roles: msg.MentionRoleIDs,
	}
}
