package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/service"
)

// Request is an interaction mapped to a ticket action.
type Request struct {
	Action    domain.Action
	Ref       gateway.InteractionRef
	GuildID   string
	ChannelID string
	Actor     domain.Actor
	// Reason is set for open_ticket.
	Reason string
	// TargetID is set for add_member.
	TargetID string
	// Setup is set for setup.
	Setup service.SetupInput
}

// Route classifies what the interaction asks for.
type Route int

const (
	RouteUnknown Route = iota
	RoutePing
	// RouteModal shows the ticket reason modal.
	RouteModal
	// RouteAction defers and runs a Request.
	RouteAction
)

// Classify maps an interaction to a route and, for RouteAction, a Request.
func Classify(i *discordgo.Interaction) (Route, *Request) {
	switch i.Type {
	case discordgo.InteractionPing:
		return RoutePing, nil
	case discordgo.InteractionApplicationCommand:
		return classifyCommand(i)
	case discordgo.InteractionMessageComponent:
		return classifyComponent(i)
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if data.CustomID != service.CustomIDTicketModal {
			return RouteUnknown, nil
		}
		req := newRequest(i, domain.ActionOpenTicket)
		req.Reason = modalValue(data, service.ModalFieldReason)
		return RouteAction, req
	default:
		return RouteUnknown, nil
	}
}

func classifyCommand(i *discordgo.Interaction) (Route, *Request) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case CommandTicket:
		return RouteModal, nil
	case CommandAdd:
		req := newRequest(i, domain.ActionAddMember)
		req.TargetID = optionID(data.Options, OptionUser)
		return RouteAction, req
	case CommandSetup:
		req := newRequest(i, domain.ActionSetup)
		req.Setup = service.SetupInput{
			CategoryID:    optionalID(data.Options, OptionCategory),
			SupportRoleID: optionalID(data.Options, OptionSupportRole),
			LogChannelID:  optionalID(data.Options, OptionLogChannel),
		}
		return RouteAction, req
	default:
		return RouteUnknown, nil
	}
}

func classifyComponent(i *discordgo.Interaction) (Route, *Request) {
	switch i.MessageComponentData().CustomID {
	case service.CustomIDCreateTicket:
		return RouteModal, nil
	case service.CustomIDCloseTicket:
		return RouteAction, newRequest(i, domain.ActionCloseTicket)
	case service.CustomIDDeleteTicket:
		return RouteAction, newRequest(i, domain.ActionDeleteTicket)
	default:
		return RouteUnknown, nil
	}
}

func newRequest(i *discordgo.Interaction, action domain.Action) *Request {
	return &Request{
		Action:    action,
		Ref:       gateway.InteractionRef{ID: i.ID, ApplicationID: i.AppID, Token: i.Token},
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Actor:     ActorFromInteraction(i),
	}
}

// ActorFromInteraction derives the acting member. Interactions outside a
// guild carry only a user and never have admin rights.
func ActorFromInteraction(i *discordgo.Interaction) domain.Actor {
	if i.Member != nil && i.Member.User != nil {
		name := i.Member.Nick
		if name == "" {
			name = i.Member.User.Username
		}
		return domain.Actor{
			ID:          i.Member.User.ID,
			DisplayName: name,
			RoleIDs:     i.Member.Roles,
			IsAdmin:     i.Member.Permissions&discordgo.PermissionAdministrator != 0,
		}
	}
	if i.User != nil {
		return domain.Actor{ID: i.User.ID, DisplayName: i.User.Username}
	}
	return domain.Actor{}
}

func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

// Snowflake-typed options arrive as strings.
func optionID(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt := findOption(options, name)
	if opt == nil {
		return ""
	}
	id, _ := opt.Value.(string)
	return id
}

func optionalID(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	id := optionID(options, name)
	if id == "" {
		return nil
	}
	return &id
}

func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
