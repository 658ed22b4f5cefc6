package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// TicketEventRepository stores audit entries.
type TicketEventRepository interface {
	Create(ctx context.Context, event *domain.TicketEvent) error
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketEvent, error)
}

type ticketEventRepository struct {
	pool *pgxpool.Pool
}

// NewTicketEventRepository builds repository.
func NewTicketEventRepository(pool *pgxpool.Pool) TicketEventRepository {
	return &ticketEventRepository{pool: pool}
}

func (r *ticketEventRepository) Create(ctx context.Context, event *domain.TicketEvent) error {
	const query = `
        INSERT INTO ticket_events (id, guild_id, ticket_id, event_type, actor_id, details, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.GuildID,
		event.TicketID,
		event.Type,
		event.ActorID,
		details,
		event.CreatedAt,
	)
	return err
}

func (r *ticketEventRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketEvent, error) {
	const query = `
        SELECT id, guild_id, ticket_id, event_type, actor_id, details, created_at
        FROM ticket_events WHERE ticket_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	limit, offset = normalizePage(limit, offset)
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketEvent
	for rows.Next() {
		var event domain.TicketEvent
		if err := rows.Scan(
			&event.ID,
			&event.GuildID,
			&event.TicketID,
			&event.Type,
			&event.ActorID,
			&event.Details,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
