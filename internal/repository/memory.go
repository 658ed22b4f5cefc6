package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// memoryTicketRepository indexes tickets in process memory. It is used when
// no database is configured; the thread-name scan repopulates it after a restart.
type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewMemoryTicketRepository builds an in-process ticket index.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	if ticket.Live() {
		for _, existing := range r.tickets {
			if existing.Live() && existing.GuildID == ticket.GuildID && existing.RequesterID == ticket.RequesterID {
				return ErrDuplicate
			}
		}
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	current.State = ticket.State
	current.Reason = ticket.Reason
	current.ClosedAt = ticket.ClosedAt
	current.DeletedAt = ticket.DeletedAt
	current.UpdatedAt = time.Now()
	ticket.UpdatedAt = current.UpdatedAt
	r.tickets[ticket.ID] = current
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) FindLiveByRequester(_ context.Context, guildID, requesterID string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ticket := range r.tickets {
		if ticket.Live() && ticket.GuildID == guildID && ticket.RequesterID == requesterID {
			found := ticket
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, ticket)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(result) {
		return []domain.Ticket{}, nil
	}
	end := min(offset+limit, len(result))
	return result[offset:end], nil
}

func matchesFilter(ticket domain.Ticket, filter TicketFilter) bool {
	if ticket.GuildID != filter.GuildID {
		return false
	}
	if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
		return false
	}
	if len(filter.States) > 0 && !slices.Contains(filter.States, ticket.State) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

type memoryTicketEventRepository struct {
	mu     sync.RWMutex
	events map[string][]domain.TicketEvent
}

// NewMemoryTicketEventRepository builds an in-process audit history.
func NewMemoryTicketEventRepository() TicketEventRepository {
	return &memoryTicketEventRepository{events: make(map[string][]domain.TicketEvent)}
}

func (r *memoryTicketEventRepository) Create(_ context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.TicketID] = append(r.events[event.TicketID], *event)
	return nil
}

func (r *memoryTicketEventRepository) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.events[ticketID]
	limit, offset = normalizePage(limit, offset)
	if offset >= len(entries) {
		return []domain.TicketEvent{}, nil
	}
	end := min(offset+limit, len(entries))
	return slices.Clone(entries[offset:end]), nil
}
