package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

type outboxStatus string

const (
	outboxStatusPending outboxStatus = "pending"
	outboxStatusSent    outboxStatus = "sent"
	outboxStatusFailed  outboxStatus = "failed"
)

type outboxRecord struct {
	message   domain.OutboxMessage
	status    outboxStatus
	createdAt time.Time
	seq       int64
}

// outboxRepositoryInMemory — in-memory реализация transactional outbox.
type outboxRepositoryInMemory struct {
	mu      sync.Mutex
	records map[string]*outboxRecord
	nextSeq int64
}

// NewOutboxRepository возвращает in-memory outbox для локальной разработки и тестов.
func NewOutboxRepository() domain.OutboxRepository {
	return &outboxRepositoryInMemory{
		records: make(map[string]*outboxRecord),
	}
}

// Enqueue сохраняет событие в статусе pending. Пустой ID заменяется новым UUID.
func (r *outboxRepositoryInMemory) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.OutboxMessage{}, err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	r.records[msg.ID] = &outboxRecord{
		message:   msg,
		status:    outboxStatusPending,
		createdAt: time.Now().UTC(),
		seq:       r.nextSeq,
	}
	return msg, nil
}

// PullPending возвращает pending-события в порядке создания, не более limit.
func (r *outboxRepositoryInMemory) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]*outboxRecord, 0, len(r.records))
	for _, record := range r.records {
		if record.status == outboxStatusPending {
			pending = append(pending, record)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].seq < pending[j].seq
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	messages := make([]domain.OutboxMessage, 0, len(pending))
	for _, record := range pending {
		messages = append(messages, record.message)
	}
	return messages, nil
}

// Stats возвращает состояние backlog.
func (r *outboxRepositoryInMemory) Stats(ctx context.Context) (domain.OutboxStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.OutboxStats{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.OutboxStats
	for _, record := range r.records {
		if record.status != outboxStatusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || record.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = record.createdAt
		}
	}
	return stats, nil
}

// MarkSent помечает событие как опубликованное.
func (r *outboxRepositoryInMemory) MarkSent(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, outboxStatusSent)
}

// MarkFailed помечает событие как неудавшееся.
func (r *outboxRepositoryInMemory) MarkFailed(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, outboxStatusFailed)
}

func (r *outboxRepositoryInMemory) markStatus(ctx context.Context, id string, status outboxStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return fmt.Errorf("outbox message %s not found", id)
	}
	record.status = status
	return nil
}

var _ domain.OutboxRepository = (*outboxRepositoryInMemory)(nil)
