package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/pricing/internal/logging"
	"github.com/google/uuid"
)

// Audit outcomes. A submission is rejected when the user can fix it and
// failed when something went wrong on our side.
const (
	AuditAccepted = "accepted"
	AuditRejected = "rejected"
	AuditFailed   = "failed"
)

// Audit trail page sizes.
const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// AuditEntry records one pricing submission, accepted or not.
type AuditEntry struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Outcome      string    `json:"outcome"`
	GroupID      string    `json:"groupId,omitempty"`
	CustomerID   string    `json:"customerId,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	RowsAffected int       `json:"rowsAffected"`
	RowsRejected int       `json:"rowsRejected,omitempty"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuditQuery filters the audit trail. Zero values match everything.
type AuditQuery struct {
	GroupID string
	Limit   int
}

// AuditLog stores submission records. ListAudit returns newest first.
type AuditLog interface {
	RecordAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, q AuditQuery) ([]AuditEntry, error)
}

// WithAudit records every submission to log.
func WithAudit(log AuditLog) Option {
	return func(s *Service) { s.audit = log }
}

// newAuditEntry fills the fields common to every submission record.
func newAuditEntry(ctx context.Context, kind string, result *SubmissionResult, err error) AuditEntry {
	e := AuditEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		IPAddress: ClientIPFromContext(ctx),
		UserAgent: UserAgentFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}

	if err == nil {
		e.Outcome = AuditAccepted
		e.GroupID = result.GroupID
		e.RowsAffected = result.ItemCount
		return e
	}

	msg := MapError(err)
	e.ErrorCode = msg.Code
	e.Reason = msg.Message
	e.Outcome = AuditFailed
	if IsUserFacing(err) {
		e.Outcome = AuditRejected
	}

	var rowErrs ValidationErrors
	if errors.As(err, &rowErrs) {
		e.RowsRejected = len(rowErrs)
	}
	return e
}

// recordAudit writes e to the audit log. A failed write is logged and
// otherwise ignored; it never changes the submission's result.
func (s *Service) recordAudit(ctx context.Context, e AuditEntry) {
	if s.audit == nil {
		return
	}
	// The request may already be cancelled; the record should still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.audit.RecordAudit(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"audit_id", e.ID,
			"kind", e.Kind,
			"error", err,
		)
	}
}

// AuditTrail returns recent submission records, newest first. Without an
// audit log it returns an empty list.
func (s *Service) AuditTrail(ctx context.Context, q AuditQuery) ([]AuditEntry, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultAuditLimit
	}
	q.Limit = min(q.Limit, MaxAuditLimit)

	if s.audit == nil {
		return []AuditEntry{}, nil
	}
	entries, err := s.audit.ListAudit(ctx, q)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	return entries, nil
}
