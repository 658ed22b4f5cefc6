// Package access decides who may act on a ticket.
//
// Rules are evaluated in a fixed order and the first match grants access:
//
//  1. owner: the actor opened the ticket
//  2. support role: the actor holds the guild's configured support role
//  3. admin: the actor has administrator permission
//
// Every rule is an allow rule, so gaining a role or admin status can never
// revoke access the actor already had. Which rules apply is chosen per action
// by a Policy.
package access

import (
	"github.com/spec-kit/ticket-bot/internal/domain"
)

// RuleSet enables individual rules for one action.
type RuleSet struct {
	Owner       bool
	SupportRole bool
	Admin       bool
}

// AllRules enables owner, support role and admin.
var AllRules = RuleSet{Owner: true, SupportRole: true, Admin: true}

// AdminOnly enables only the admin rule.
var AdminOnly = RuleSet{Admin: true}

// Policy maps actions to the rules that may grant them. Actions missing from
// the policy are denied.
type Policy map[domain.Action]RuleSet

// DefaultPolicy applies the same rules to close, delete and add-member, and
// restricts setup to admins.
func DefaultPolicy() Policy {
	return Policy{
		domain.ActionCloseTicket:  AllRules,
		domain.ActionDeleteTicket: AllRules,
		domain.ActionAddMember:    AllRules,
		domain.ActionSetup:        AdminOnly,
	}
}

// Resolver evaluates a Policy.
type Resolver struct {
	policy Policy
}

// NewResolver builds a resolver; a nil policy means DefaultPolicy.
func NewResolver(policy Policy) *Resolver {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Resolver{policy: policy}
}

// WithDeleteAdminOnly returns a copy of p where delete needs admin.
func (p Policy) WithDeleteAdminOnly() Policy {
	out := make(Policy, len(p))
	for action, rules := range p {
		out[action] = rules
	}
	out[domain.ActionDeleteTicket] = AdminOnly
	return out
}

// Authorize reports whether actor may perform action on ticket. ticket may
// be nil for workspace-level actions such as setup.
func (r *Resolver) Authorize(actor domain.Actor, ticket *domain.Ticket, cfg domain.WorkspaceConfig, action domain.Action) bool {
	rules, ok := r.policy[action]
	if !ok {
		return false
	}
	switch {
	case rules.Owner && ticket != nil && actor.ID != "" && actor.ID == ticket.RequesterID:
		return true
	case rules.SupportRole && cfg.SupportRole() != "" && actor.HasRole(cfg.SupportRole()):
		return true
	case rules.Admin && actor.IsAdmin:
		return true
	default:
		return false
	}
}
