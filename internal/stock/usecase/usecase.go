package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/stock/mapper"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	importLockKey      = "lock:stock:write"
	lockAttempts       = 3
	lockRetryDelay     = 100 * time.Millisecond
	defaultLockTimeout = 5 * time.Minute
)

type rowOutcome int

const (
	rowSkipped rowOutcome = iota
	rowInserted
	rowUpdated
)

type stockUseCase struct {
	repo     stock.Repository
	locker   stock.Locker
	lockTTL  time.Duration
	validate *validator.Validate
	logger   logger.ZapLogger
}

// NewStockUseCase wires the merge engine. locker may be nil when a single
// process owns the store.
func NewStockUseCase(repo stock.Repository, locker stock.Locker, lockTTL time.Duration, log logger.ZapLogger) stock.UseCase {
	if lockTTL <= 0 {
		lockTTL = defaultLockTimeout
	}
	return &stockUseCase{
		repo:     repo,
		locker:   locker,
		lockTTL:  lockTTL,
		validate: validator.New(),
		logger:   log,
	}
}

// Import merges a sheet into the store. Only present cells are written,
// so a sparse re-import never erases stored values. A missing key column
// fails before anything is touched; store errors stop the batch and the
// rows already written stay written.
func (uc *stockUseCase) Import(ctx context.Context, table *dto.Table) (*dto.ImportResult, error) {
	if table == nil {
		table = &dto.Table{}
	}

	cols := mapper.MapHeaders(table.Headers)
	keyCol, ok := mapper.FindKeyColumn(cols, model.FieldKey)
	if !ok {
		return nil, fmt.Errorf("%w: got headers %q", stock.ErrMissingKeyColumn, table.Headers)
	}

	unlock, err := uc.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &dto.ImportResult{BatchID: uuid.New(), Rows: len(table.Rows)}
	log := uc.logger.With(zap.String("batch_id", result.BatchID.String()))
	log.Info("Starting stock import", zap.Int("rows", len(table.Rows)), zap.String("key_column", keyCol.Raw))

	fields := mapper.FieldsFor(cols)
	if err := uc.repo.EnsureFields(ctx, fields); err != nil {
		return nil, fmt.Errorf("failed to evolve schema: %w", err)
	}
	uc.warnTypeConflicts(ctx, log, fields)

	for i, row := range table.Rows {
		outcome, err := uc.mergeRow(ctx, table, cols, keyCol, row)
		if err != nil {
			log.Error("Stock import aborted",
				zap.Int("sheet_row", i+2),
				zap.Int("inserted", result.Inserted),
				zap.Int("updated", result.Updated),
				zap.Int("skipped", result.Skipped),
				zap.Error(err),
			)
			return result, fmt.Errorf("sheet row %d: %w", i+2, err)
		}

		switch outcome {
		case rowInserted:
			result.Inserted++
		case rowUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
	}

	log.Info("Stock import finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (uc *stockUseCase) mergeRow(ctx context.Context, table *dto.Table, cols []mapper.Column, keyCol mapper.Column, row []string) (rowOutcome, error) {
	key, ok := dto.Present(table.Cell(row, keyCol.Index))
	if !ok {
		return rowSkipped, nil
	}

	values := changeSet(table, cols, row)

	existing, err := uc.repo.Get(ctx, key)
	if err != nil {
		return rowSkipped, err
	}

	if existing != nil {
		if len(values) == 0 {
			return rowSkipped, nil
		}
		if err := uc.repo.UpsertFields(ctx, key, values); err != nil {
			return rowSkipped, err
		}
		return rowUpdated, nil
	}

	if err := uc.repo.UpsertFields(ctx, key, values); err != nil {
		return rowSkipped, err
	}
	return rowInserted, nil
}

// changeSet collects the present, non-key cells of a row. When two
// columns share a field the later present cell wins; a quantity that does
// not parse is left out.
func changeSet(table *dto.Table, cols []mapper.Column, row []string) map[string]model.Value {
	values := make(map[string]model.Value, len(cols))
	for _, c := range cols {
		if c.Field == model.FieldKey {
			continue
		}
		raw, ok := dto.Present(table.Cell(row, c.Index))
		if !ok {
			continue
		}
		if c.Field == model.FieldQuantity {
			n, err := parseQuantity(raw)
			if err != nil {
				continue
			}
			values[c.Field] = model.Int(n)
			continue
		}
		values[c.Field] = model.Text(raw)
	}
	return values
}

// warnTypeConflicts logs fields whose stored type differs from the type
// implied by this sheet; the stored type is kept.
func (uc *stockUseCase) warnTypeConflicts(ctx context.Context, log logger.ZapLogger, fields []model.Field) {
	schema, err := uc.repo.Schema(ctx)
	if err != nil {
		log.Warn("Could not read schema after evolving it", zap.Error(err))
		return
	}
	for _, f := range fields {
		if stored, ok := schema.TypeOf(f.Name); ok && stored != f.Type {
			log.Warn("Field keeps its stored type",
				zap.String("field", f.Name),
				zap.String("stored_type", string(stored)),
				zap.String("implied_type", string(f.Type)),
			)
		}
	}
}

// SaveRecord is the manual entry path. By default it follows the import
// policy; with Overwrite every named field is written and blanks become null.
func (uc *stockUseCase) SaveRecord(ctx context.Context, input *dto.SaveRecordInput) (*dto.SaveRecordResult, error) {
	if input == nil {
		return nil, stock.ErrEmptyKey
	}
	if err := uc.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid record input: %w", err)
	}
	key := strings.TrimSpace(input.Key)
	if key == "" {
		return nil, stock.ErrEmptyKey
	}

	fields := []model.Field{}
	values := map[string]model.Value{}
	add := func(name, raw string) error {
		if name == model.FieldKey {
			return nil
		}
		fields = append(fields, model.Field{Name: name, Type: model.DeclaredType(name)})

		v, ok := dto.Present(raw)
		if !ok {
			if input.Overwrite {
				values[name] = model.Null()
			}
			return nil
		}
		if name == model.FieldQuantity {
			n, err := parseQuantity(v)
			if err != nil {
				return err
			}
			values[name] = model.Int(n)
			return nil
		}
		values[name] = model.Text(v)
		return nil
	}

	raws := make([]string, 0, len(input.Fields))
	for raw := range input.Fields {
		raws = append(raws, raw)
	}
	sort.Strings(raws)
	for _, raw := range raws {
		if err := add(mapper.FieldName(raw), input.Fields[raw]); err != nil {
			return nil, err
		}
	}
	if input.Quantity != nil {
		if err := add(model.FieldQuantity, *input.Quantity); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(input.ExtraName) != "" {
		if err := add(mapper.FieldName(input.ExtraName), input.ExtraValue); err != nil {
			return nil, err
		}
	}

	unlock, err := uc.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := uc.repo.EnsureFields(ctx, fields); err != nil {
		return nil, fmt.Errorf("failed to evolve schema: %w", err)
	}

	existing, err := uc.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.UpsertFields(ctx, key, values); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(values))
	for name := range values {
		written = append(written, name)
	}
	sort.Strings(written)

	uc.logger.Info("Stock record saved",
		zap.String("key", key),
		zap.Bool("created", existing == nil),
		zap.Strings("fields", written),
	)
	return &dto.SaveRecordResult{Key: key, Created: existing == nil, Fields: written}, nil
}

func (uc *stockUseCase) GetRecord(ctx context.Context, key string) (*model.Record, error) {
	rec, err := uc.repo.Get(ctx, strings.TrimSpace(key))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", stock.ErrRecordNotFound, key)
	}
	return rec, nil
}

// SearchRecords accepts filter fields as typed in a sheet header and maps
// them like an import would.
func (uc *stockUseCase) SearchRecords(ctx context.Context, filters *dto.SearchFilters) ([]model.Record, error) {
	if filters == nil || len(filters.Fields) == 0 {
		return uc.repo.Search(ctx, filters)
	}

	mapped := &dto.SearchFilters{Query: filters.Query, Fields: make([]string, len(filters.Fields))}
	for i, f := range filters.Fields {
		mapped.Fields[i] = mapper.FieldName(f)
	}
	return uc.repo.Search(ctx, mapped)
}

func (uc *stockUseCase) ListRecords(ctx context.Context) ([]model.Record, error) {
	return uc.repo.All(ctx)
}

func (uc *stockUseCase) Schema(ctx context.Context) (model.Schema, error) {
	return uc.repo.Schema(ctx)
}

// lock takes the cross-process write lock when a locker is configured.
func (uc *stockUseCase) lock(ctx context.Context) (func(), error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	value := uuid.New().String()
	acquired := false
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.locker.AcquireLock(ctx, importLockKey, value, uc.lockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		if i == lockAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	if !acquired {
		return nil, stock.ErrImportLocked
	}

	return func() {
		// the caller's context may already be done
		if err := uc.locker.ReleaseLock(context.Background(), importLockKey, value); err != nil {
			uc.logger.Warn("failed to release lock", zap.Error(err))
		}
	}, nil
}
