package store

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// memoryAuditCap bounds the in-memory audit trail; the oldest entries go first.
const memoryAuditCap = 10000

// RecordAudit appends e to the trail.
func (m *Memory) RecordAudit(ctx context.Context, e core.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.audit = append(m.audit, e)
	if over := len(m.audit) - memoryAuditCap; over > 0 {
		m.audit = append(m.audit[:0], m.audit[over:]...)
	}
	return nil
}

// ListAudit returns matching entries, newest first.
func (m *Memory) ListAudit(_ context.Context, q core.AuditQuery) ([]core.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []core.AuditEntry{}
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if q.GroupID != "" && e.GroupID != q.GroupID {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// RecordAudit inserts e into submission_audit.
func (p *Postgres) RecordAudit(ctx context.Context, e core.AuditEntry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO submission_audit (id, kind, outcome, group_id, customer_id,
			filename, rows_affected, rows_rejected, error_code, reason, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Kind, e.Outcome, toPgText(e.GroupID), toPgText(e.CustomerID),
		toPgText(e.Filename), e.RowsAffected, e.RowsRejected, toPgText(e.ErrorCode), toPgText(e.Reason),
		toPgInet(e.IPAddress), toPgText(e.UserAgent), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit %s: %w", e.ID, err)
	}
	return nil
}

// ListAudit returns matching entries, newest first.
func (p *Postgres) ListAudit(ctx context.Context, q core.AuditQuery) ([]core.AuditEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = core.MaxAuditLimit
	}

	rows, err := p.pool.Query(ctx, `SELECT id::text, kind, outcome, group_id, customer_id, filename,
			rows_affected, rows_rejected, error_code, reason, ip_address, user_agent, created_at
		FROM submission_audit
		WHERE ($1 = '' OR group_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2`, q.GroupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanAudit)
	if err != nil {
		return nil, fmt.Errorf("scan audit: %w", err)
	}
	return entries, nil
}

func scanAudit(row pgx.CollectableRow) (core.AuditEntry, error) {
	var (
		e                         core.AuditEntry
		groupID, customerID, file pgtype.Text
		errorCode, reason, agent  pgtype.Text
		ip                        *netip.Addr
	)
	err := row.Scan(
		&e.ID, &e.Kind, &e.Outcome, &groupID, &customerID, &file,
		&e.RowsAffected, &e.RowsRejected, &errorCode, &reason, &ip, &agent, &e.CreatedAt,
	)
	if err != nil {
		return core.AuditEntry{}, err
	}

	e.GroupID = groupID.String
	e.CustomerID = customerID.String
	e.Filename = file.String
	e.ErrorCode = errorCode.String
	e.Reason = reason.String
	e.UserAgent = agent.String
	if ip != nil {
		e.IPAddress = ip.String()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// toPgInet strips any port and returns nil for anything that is not an address.
func toPgInet(s string) *netip.Addr {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil
	}
	return &addr
}
