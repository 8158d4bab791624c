package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventStockRowsUpserted = "StockRowsUpserted"

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// StockListener feeds rows published on Kafka through the same merge
// import as uploaded sheets, one batch per message.
type StockListener struct {
	consumer MessageReader
	uc       stock.UseCase
	logger   logger.ZapLogger
}

func NewStockListener(consumer MessageReader, uc stock.UseCase, logger logger.ZapLogger) *StockListener {
	return &StockListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("Starting Stock Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Stock Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockRowsEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Payload   StockRowsPayload `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

// StockRowsPayload rows are keyed by header, exactly as a sheet would be.
type StockRowsPayload struct {
	Source string                   `json:"source"`
	Rows   []map[string]interface{} `json:"rows"`
}

func (l *StockListener) processMessage(ctx context.Context, value []byte) {
	var event StockRowsEvent
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventStockRowsUpserted {
		return
	}

	l.logger.Info("Processing StockRowsUpserted event",
		zap.String("event_id", event.EventID),
		zap.String("source", event.Payload.Source),
		zap.Int("rows", len(event.Payload.Rows)),
	)

	res, err := l.uc.Import(ctx, toTable(event.Payload.Rows))
	if err != nil {
		l.logger.Error("Failed to import stock rows",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}
	l.logger.Info("Imported stock rows",
		zap.String("event_id", event.EventID),
		zap.String("batch_id", res.BatchID.String()),
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
}

// toTable lays rows out as a sheet; headers are sorted so the same event
// always maps the same way.
func toTable(rows []map[string]interface{}) *dto.Table {
	index := map[string]int{}
	headers := []string{}
	for _, row := range rows {
		for h := range row {
			if _, ok := index[h]; !ok {
				index[h] = 0
				headers = append(headers, h)
			}
		}
	}
	sort.Strings(headers)
	for i, h := range headers {
		index[h] = i
	}

	table := &dto.Table{Headers: headers, Rows: make([][]string, len(rows))}
	for r, row := range rows {
		cells := make([]string, len(headers))
		for h, v := range row {
			cells[index[h]] = cellText(v)
		}
		table.Rows[r] = cells
	}
	return table
}

func cellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
