package history

import (
	"context"
	"sync"

	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
)

// DefaultMemoryCapacity is the number of runs kept by NewMemory when capacity <= 0
const DefaultMemoryCapacity = 100

// Memory keeps the most recent runs in process memory
type Memory struct {
	mu       sync.RWMutex
	records  []*model.RunRecord
	capacity int
}

var _ interfaces.HistoryRepository = (*Memory)(nil)

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) PutRun(ctx context.Context, record *model.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.records = append(m.records, &copied)
	if len(m.records) > m.capacity {
		m.records = m.records[len(m.records)-m.capacity:]
	}
	return nil
}

func (m *Memory) ListRuns(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}

	out := make([]*model.RunRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *m.records[i]
		out = append(out, &copied)
	}
	return out, nil
}
