package store

import (
	"context"
	"fmt"
	"time"

	"devlift/questionnaire-backend/internal"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Neo4jDriver struct {
	logger     *zap.Logger
	driver     neo4j.DriverWithContext
	tracer     trace.Tracer
	maxRetries uint64
}

// NewNeo4jDriver connects to the graph store and verifies connectivity with
// bounded retry, so the service survives the store coming up after it.
func NewNeo4jDriver(ctx context.Context, logger *zap.Logger, uri, username, password string, maxRetries uint64) (*Neo4jDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	d := &Neo4jDriver{
		logger:     logger,
		driver:     driver,
		tracer:     otel.Tracer("store/neo4j"),
		maxRetries: maxRetries,
	}

	connect := func() error {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := driver.VerifyConnectivity(verifyCtx); err != nil {
			logger.Warn("Graph store not reachable yet, retrying", zap.String("uri", uri), zap.Error(err))
			return err
		}
		return nil
	}
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}

	logger.Info("Connected to graph store", zap.String("uri", uri))
	return d, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

func (d *Neo4jDriver) Run(ctx context.Context, query Query) ([]Record, error) {
	traceCtx, span := d.tracer.Start(ctx, "Run")
	defer span.End()

	var records []Record
	err := d.withRetry(traceCtx, func() error {
		session := d.driver.NewSession(traceCtx, neo4j.SessionConfig{})
		defer func() {
			if err := session.Close(traceCtx); err != nil {
				d.logger.Warn("Failed to close neo4j session", zap.Error(err))
			}
		}()

		result, err := session.Run(traceCtx, query.Statement, query.Params)
		if err != nil {
			return err
		}
		rows, err := result.Collect(traceCtx)
		if err != nil {
			return err
		}

		records = make([]Record, 0, len(rows))
		for _, row := range rows {
			records = append(records, normalizeRecord(row.AsMap()))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return records, nil
}

func (d *Neo4jDriver) RunTransaction(ctx context.Context, queries []Query) error {
	traceCtx, span := d.tracer.Start(ctx, "RunTransaction")
	defer span.End()

	err := d.withRetry(traceCtx, func() error {
		session := d.driver.NewSession(traceCtx, neo4j.SessionConfig{})
		defer func() {
			if err := session.Close(traceCtx); err != nil {
				d.logger.Warn("Failed to close neo4j session", zap.Error(err))
			}
		}()

		_, err := session.ExecuteWrite(traceCtx, func(tx neo4j.ManagedTransaction) (any, error) {
			for _, query := range queries {
				if _, err := tx.Run(traceCtx, query.Statement, query.Params); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// withRetry retries transient driver failures with exponential backoff and
// gives up immediately on everything else.
func (d *Neo4jDriver) withRetry(ctx context.Context, op func() error) error {
	logger := logutil.WithContext(ctx, d.logger)

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if neo4j.IsRetryable(err) {
			logger.Warn("Transient graph store failure, retrying", zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx))
	if err == nil {
		return nil
	}
	if neo4j.IsRetryable(err) {
		return fmt.Errorf("%w: %v", internal.ErrStoreUnavailable, err)
	}
	return err
}

// normalizeRecord flattens driver values so repositories never see dbtype
// wrappers: nodes become their property maps, lists are normalized
// element-wise.
func normalizeRecord(row map[string]any) Record {
	out := make(Record, len(row))
	for key, value := range row {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		props := make(map[string]any, len(v.Props))
		for key, prop := range v.Props {
			props[key] = normalizeValue(prop)
		}
		return props
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeValue(item))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
