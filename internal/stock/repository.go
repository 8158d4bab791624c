package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type Repository interface {
	// Schema
	Migrate(ctx context.Context) error
	Schema(ctx context.Context) (model.Schema, error)
	EnsureFields(ctx context.Context, fields []model.Field) error

	// Records
	Get(ctx context.Context, key string) (*model.Record, error)
	Search(ctx context.Context, filters *dto.SearchFilters) ([]model.Record, error)
	All(ctx context.Context) ([]model.Record, error)
	UpsertFields(ctx context.Context, key string, values map[string]model.Value) error
}
