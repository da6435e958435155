package quota

import (
	"context"
	"errors"

	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/entity"
	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/internal/repository/specification"
	"ai-studypdf-be/internal/repository/unitofwork"
)

// ErrUnauthenticated means no identity was presented with the request.
var ErrUnauthenticated = errors.New("no identity presented")

// Credentials are the caller-supplied upstream keys. When complete, the
// request runs on the caller's own accounts and is exempt from metering.
type Credentials struct {
	GoogleKey string
	CohereKey string
}

func (c Credentials) Complete() bool {
	return c.GoogleKey != "" && c.CohereKey != ""
}

// Admission is a granted admission decision.
type Admission struct {
	Unlimited bool
	UsedAfter int
}

// Status is the result of a pure quota read (no charge).
type Status struct {
	Unlimited  bool
	CanProceed bool
	Used       int
	Max        int
}

// Defaults carries the free-tier ceilings applied when a record has none.
type Defaults struct {
	MaxQueries int
	MaxPdfs    int
}

// Gatekeeper meters every expensive operation. The check and the charge
// are one conditional update at the store, so no in-process lock is held
// across I/O and concurrent requests against one unit of headroom admit
// exactly one.
type Gatekeeper struct {
	defaults Defaults
	logger   logger.ILogger
}

func NewGatekeeper(defaults Defaults, logger logger.ILogger) *Gatekeeper {
	return &Gatekeeper{
		defaults: defaults,
		logger:   logger,
	}
}

// Admit checks and charges the identity for one operation.
// The bypass path is decided before any database read.
// A failed downstream operation does not refund the charge: quota pays
// for attempts, not successes.
func (g *Gatekeeper) Admit(ctx context.Context, uow unitofwork.UnitOfWork, identityID string, op entity.QuotaOperation, creds Credentials) (*Admission, error) {
	if identityID == "" {
		return nil, ErrUnauthenticated
	}

	if creds.Complete() {
		g.logger.Info("quota", "bypass admission, caller credentials present", map[string]interface{}{
			"identity": identityID,
			"op":       string(op),
		})
		return &Admission{Unlimited: true}, nil
	}

	repo := uow.UserQuotaRepository()
	if _, err := repo.FindOrCreateByIdentity(ctx, identityID); err != nil {
		return nil, err
	}

	usedAfter, admitted, err := repo.IncrementIfBelow(ctx, identityID, op, g.defaultFor(op))
	if err != nil {
		return nil, err
	}
	if !admitted {
		return nil, g.exceededError(ctx, uow, identityID, op)
	}

	g.logger.Info("quota", "admission charged", map[string]interface{}{
		"identity":   identityID,
		"op":         string(op),
		"used_after": usedAfter,
	})
	return &Admission{UsedAfter: usedAfter}, nil
}

// Peek reports quota headroom without charging. Used by the pre-upload
// check so callers can avoid shipping a large file that would be refused.
func (g *Gatekeeper) Peek(ctx context.Context, uow unitofwork.UnitOfWork, identityID string, op entity.QuotaOperation, creds Credentials) (*Status, error) {
	if identityID == "" {
		return nil, ErrUnauthenticated
	}

	if creds.Complete() {
		return &Status{Unlimited: true, CanProceed: true}, nil
	}

	// A pure read: first-time callers get the config defaults without a
	// quota row being created for them.
	record, err := uow.UserQuotaRepository().FindOne(ctx, specification.ByIdentityID{IdentityID: identityID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		max := g.defaultFor(op)
		return &Status{Max: max, CanProceed: max > 0}, nil
	}

	used, max := g.effective(record, op)
	return &Status{
		Used:       used,
		Max:        max,
		CanProceed: used < max,
	}, nil
}

func (g *Gatekeeper) defaultFor(op entity.QuotaOperation) int {
	if op == entity.OperationPdfUpload {
		return g.defaults.MaxPdfs
	}
	return g.defaults.MaxQueries
}

func (g *Gatekeeper) effective(record *entity.UserQuota, op entity.QuotaOperation) (used, max int) {
	if op == entity.OperationPdfUpload {
		max = g.defaults.MaxPdfs
		if record.MaxPdfs != nil {
			max = *record.MaxPdfs
		}
		return record.PdfsUploaded, max
	}
	max = g.defaults.MaxQueries
	if record.MaxQueries != nil {
		max = *record.MaxQueries
	}
	return record.QueriesUsed, max
}

func (g *Gatekeeper) exceededError(ctx context.Context, uow unitofwork.UnitOfWork, identityID string, op entity.QuotaOperation) error {
	record, err := uow.UserQuotaRepository().FindOrCreateByIdentity(ctx, identityID)
	if err != nil {
		return err
	}

	queriesUsed, maxQueries := g.effective(record, entity.OperationQuery)
	pdfsUsed, maxPdfs := g.effective(record, entity.OperationPdfUpload)

	return &dto.QuotaExceededError{
		Operation:   string(op),
		QueriesUsed: queriesUsed,
		MaxQueries:  maxQueries,
		PdfsUsed:    pdfsUsed,
		MaxPdfs:     maxPdfs,
	}
}
