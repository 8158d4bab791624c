package stock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type UseCase interface {
	Import(ctx context.Context, table *dto.Table) (*dto.ImportResult, error)
	SaveRecord(ctx context.Context, input *dto.SaveRecordInput) (*dto.SaveRecordResult, error)

	GetRecord(ctx context.Context, key string) (*model.Record, error)
	SearchRecords(ctx context.Context, filters *dto.SearchFilters) ([]model.Record, error)
	ListRecords(ctx context.Context) ([]model.Record, error)
	Schema(ctx context.Context) (model.Schema, error)
}

// Locker guards the single-writer assumption across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
