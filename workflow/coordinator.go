package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/config"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/models"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

type OperationState string

const (
	StateReceived           OperationState = "RECEIVED"
	StateValidated          OperationState = "VALIDATED"
	StateIdempotencyChecked OperationState = "IDEMPOTENCY_CHECKED"
	StateMasterDataVerified OperationState = "MASTER_DATA_VERIFIED"
	StatePeriodChecked      OperationState = "PERIOD_CHECKED"
	StateCommitted          OperationState = "COMMITTED"
	StateReplayed           OperationState = "REPLAYED"
)

// ledgerOperation is implemented by every posting request.
type ledgerOperation interface {
	Header() *RequestHeader
	operationType() models.OperationType
	// payload is the struct the validator checks.
	payload() any
	// validate runs shape checks the struct tags cannot express.
	validate() error
	// verify checks master data beyond the header's location/unit.
	verify(tx *gorm.DB) error
	// post performs every write of the operation and returns the appended entry.
	post(tx *gorm.DB, p *posting) (*models.LedgerEntry, error)
}

type EngineOptions struct {
	Timezone   string
	MaxRetries int
	Isolation  sql.IsolationLevel
	Cache      ReplayCache
	Locker     KeyLocker
}

// Engine posts operations. Each posting runs in one transaction that is
// retried as a whole on storage write conflicts.
type Engine struct {
	db       *gorm.DB
	logger   *logrus.Logger
	opts     EngineOptions
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewEngine(db *gorm.DB, logger *logrus.Logger, opts EngineOptions) *Engine {
	if opts.Timezone == "" {
		opts.Timezone = utils.DefaultTimezone
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 5
	}
	return &Engine{
		db:       db,
		logger:   logger,
		opts:     opts,
		validate: NewRequestValidator(),
		tracer:   otel.Tracer("github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/workflow"),
	}
}

func (e *Engine) txOptions() models.TxOptions {
	return models.TxOptions{
		Isolation:  e.opts.Isolation,
		MaxRetries: e.opts.MaxRetries,
		Logger:     e.logger,
	}
}

func (e *Engine) run(ctx context.Context, op ledgerOperation) (*OperationResult, error) {
	opType := op.operationType()
	header := op.Header()
	ctx, span := e.tracer.Start(ctx, "ledger."+opType.KeyPrefix())
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.operation_type", string(opType)),
		attribute.String("ledger.unit_id", header.UnitId),
	)

	if header.ActorUserId == "" {
		if actor, ok := utils.GetActorUserIdFromContext(ctx); ok {
			header.ActorUserId = actor
		}
	}
	state := StateReceived
	if err := validateRequest(e.validate, op); err != nil {
		return nil, e.fail(span, opType, "", state, err)
	}
	state = StateValidated

	key := IdempotencyKey(opType, header.UnitId, header.OperationId)
	span.SetAttributes(attribute.String("ledger.idempotency_key", key))

	if cached, ok := e.loadCached(ctx, key, opType); ok {
		span.SetAttributes(attribute.Bool("ledger.replayed", true))
		return cached, nil
	}
	if e.opts.Locker != nil {
		unlock := e.opts.Locker.Lock(ctx, key)
		defer unlock()
		// a duplicate that waited on the lock usually finds the winner cached
		if cached, ok := e.loadCached(ctx, key, opType); ok {
			span.SetAttributes(attribute.Bool("ledger.replayed", true))
			return cached, nil
		}
	}

	var result *OperationResult
	err := models.RunInTransaction(ctx, e.db, e.txOptions(), func(tx *gorm.DB) error {
		result = nil
		state = StateValidated

		prior, err := findPriorResult(tx, key, opType)
		if err != nil {
			return err
		}
		if prior != nil {
			prior.Replayed = true
			result = prior
			state = StateReplayed
			return nil
		}
		state = StateIdempotencyChecked

		if err := enforceMasterData(tx, op); err != nil {
			return err
		}
		state = StateMasterDataVerified

		if err := enforcePostingGate(tx, header.Timestamp, e.opts.Timezone); err != nil {
			return err
		}
		state = StatePeriodChecked

		entry, err := op.post(tx, &posting{key: key, header: header, opType: opType})
		if err != nil {
			return err
		}
		result, err = resultFromEntry(tx, entry)
		return err
	})
	if err != nil {
		return nil, e.fail(span, opType, key, state, err)
	}
	if state != StateReplayed {
		state = StateCommitted
	}

	if e.opts.Cache != nil {
		e.opts.Cache.Store(ctx, key, result)
	}
	span.SetAttributes(attribute.Bool("ledger.replayed", result.Replayed))
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	source, _ := utils.GetRequestSourceFromContext(ctx)
	e.logger.WithFields(logrus.Fields{
		"field":           "Engine.run",
		"operation_type":  opType,
		"idempotency_key": key,
		"actor_user_id":   header.ActorUserId,
		"correlation_id":  correlationId,
		"request_source":  source,
		"state":           state,
	}).Info("ledger operation done")
	return result, nil
}

func (e *Engine) loadCached(ctx context.Context, key string, opType models.OperationType) (*OperationResult, bool) {
	if e.opts.Cache == nil {
		return nil, false
	}
	cached, ok := e.opts.Cache.Load(ctx, key)
	if !ok || cached.OperationType != opType {
		return nil, false
	}
	cached.Replayed = true
	return cached, true
}

// fail records err on the span and normalises it into the error taxonomy.
// Business errors pass through untouched; anything untyped is INTERNAL.
func (e *Engine) fail(span trace.Span, opType models.OperationType, key string, state OperationState, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = status.FromContextError(err).Err()
	}
	if !models.IsTypedError(err) {
		config.LogError(e.logger, "coordinator.go", "Engine.run", string(state), key, err)
		err = models.NewInternalError("%s %s failed: %v", opType, key, err)
	} else {
		e.logger.WithFields(logrus.Fields{
			"field":           "Engine.run",
			"operation_type":  opType,
			"idempotency_key": key,
			"state":           state,
			"code":            models.ErrorCode(err).String(),
		}).Info("ledger operation rejected: " + err.Error())
	}
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// posting carries what every operation stamps onto its ledger entry.
type posting struct {
	key    string
	header *RequestHeader
	opType models.OperationType
}

// appendEntry writes the operation's ledger entry and trace links under the idempotency key.
func (p *posting) appendEntry(tx *gorm.DB, lines []models.LedgerLine, links models.EntryLinks, traces []*models.TraceLink) (*models.LedgerEntry, error) {
	links.AttachmentIds = p.header.AttachmentIds
	entry := &models.LedgerEntry{
		ID:            p.key,
		Timestamp:     p.header.Timestamp.UTC(),
		LocationId:    p.header.LocationId,
		UnitId:        p.header.UnitId,
		ActorUserId:   p.header.ActorUserId,
		OperationType: p.opType,
		OperationId:   p.header.OperationId,
		Lines:         lines,
		Links:         links,
		Notes:         p.header.Notes,
	}
	if err := models.AppendLedgerEntry(tx, entry); err != nil {
		return nil, err
	}
	if err := models.AppendTraceLinks(tx, p.key, traces); err != nil {
		return nil, err
	}
	return entry, nil
}
