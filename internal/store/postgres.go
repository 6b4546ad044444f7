package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/pricing/internal/config"
	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// customerSearchLimit caps customer search results.
const customerSearchLimit = 50

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ core.Store    = (*Postgres)(nil)
	_ core.AuditLog = (*Postgres)(nil)
	_ Seeder        = (*Postgres)(nil)
)

// Postgres is a core.Store backed by PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. The caller owns the pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres connects using cfg, verifies the connection, and creates the
// schema if it does not exist. Close releases the pool.
func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the pricing tables if they are missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// AddCustomers upserts customers by ID.
func (p *Postgres) AddCustomers(ctx context.Context, customers ...core.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range customers {
		batch.Queue(`INSERT INTO customers (id, name, code) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code`,
			c.ID, c.Name, c.Code)
	}
	return p.pool.SendBatch(ctx, batch).Close()
}

// SearchCustomers matches query case-insensitively against name, ID, and code.
func (p *Postgres) SearchCustomers(ctx context.Context, query string) ([]core.Customer, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := p.pool.Query(ctx, `SELECT id, name, code FROM customers
		WHERE name ILIKE $1 OR id ILIKE $1 OR code ILIKE $1
		ORDER BY name
		LIMIT $2`, pattern, customerSearchLimit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[core.Customer])
}

// ListGroups returns summaries of a customer's groups in creation order.
func (p *Postgres) ListGroups(ctx context.Context, customerID string) ([]core.GroupSummary, error) {
	rows, err := p.pool.Query(ctx, `SELECT g.id, g.customer_id, g.name, g.status,
			g.effective_date, g.expiration_date, COUNT(i.id)
		FROM pricing_groups g
		LEFT JOIN pricing_items i ON i.group_id = g.id
		WHERE g.customer_id = $1
		GROUP BY g.id
		ORDER BY g.created_at, g.id`, customerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[core.GroupSummary])
}

// GetGroup returns the group with its items ordered by sequence.
func (p *Postgres) GetGroup(ctx context.Context, groupID string) (*core.PricingGroup, error) {
	return getGroup(ctx, p.pool, groupID)
}

// CreateGroup inserts g and its items in one transaction.
func (p *Postgres) CreateGroup(ctx context.Context, g *core.PricingGroup) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	customFields := g.CustomFields
	if customFields == nil {
		customFields = map[string]string{}
	}

	_, err = tx.Exec(ctx, `INSERT INTO pricing_groups (id, customer_id, name, description, template,
			custom_fields, effective_date, expiration_date, status, group_type, item_seq, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		g.ID, g.CustomerID, g.Name, g.Description, g.Template,
		customFields, toPgDate(g.EffectiveDate), toPgDate(g.ExpirationDate),
		g.Status, string(g.Type), len(g.Items), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert group %s: %w", g.ID, err)
	}

	if err := insertItems(ctx, tx, g.Items, 0); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppendItems locks the group row, numbers items after its stored sequence,
// and inserts them in one transaction.
func (p *Postgres) AppendItems(ctx context.Context, groupID string, items []core.PricingItem) (*core.PricingGroup, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	var lastSeq int
	err = tx.QueryRow(ctx, `SELECT item_seq FROM pricing_groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&lastSeq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &core.NotFoundError{Resource: "pricing group", ID: groupID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock group %s: %w", groupID, err)
	}

	assigned := core.AssignItemIDs(groupID, lastSeq, items)
	if err := insertItems(ctx, tx, assigned, lastSeq); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE pricing_groups SET item_seq = $2, updated_at = $3 WHERE id = $1`,
		groupID, lastSeq+len(assigned), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update group %s: %w", groupID, err)
	}

	g, err := getGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

const insertItemSQL = `INSERT INTO pricing_items (id, group_id, seq, product_name, region,
		unit_price, minimum_price, effective_date, expiration_date, status,
		quote_name, project_name, uom, contract_id, generator_id, vendor_id,
		container_size, billing_uom, pricing_type, price_priority)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

// insertItems batches item inserts. Sequence numbers start after lastSeq.
func insertItems(ctx context.Context, q querier, items []core.PricingItem, lastSeq int) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(insertItemSQL,
			it.ID, it.GroupID, lastSeq+i+1, it.ProductName, it.Region,
			toPgNumeric(it.UnitPrice), toPgNumeric(it.MinimumPrice),
			toPgDate(it.EffectiveDate), toPgDate(it.ExpirationDate), it.Status,
			toPgText(it.QuoteName), toPgText(it.ProjectName), toPgText(it.UOM),
			toPgText(it.ContractID), toPgText(it.GeneratorID), toPgText(it.VendorID),
			toPgText(it.ContainerSize), toPgText(it.BillingUOM), toPgText(it.PricingType),
			toPgText(it.PricePriority),
		)
	}

	br := q.SendBatch(ctx, batch)
	for _, it := range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}
	return br.Close()
}

func getGroup(ctx context.Context, q querier, groupID string) (*core.PricingGroup, error) {
	var (
		g         core.PricingGroup
		groupType string
		eff, exp  pgtype.Date
	)
	err := q.QueryRow(ctx, `SELECT id, customer_id, name, description, template, custom_fields,
			effective_date, expiration_date, status, group_type, created_at, updated_at
		FROM pricing_groups WHERE id = $1`, groupID).Scan(
		&g.ID, &g.CustomerID, &g.Name, &g.Description, &g.Template, &g.CustomFields,
		&eff, &exp, &g.Status, &groupType, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &core.NotFoundError{Resource: "pricing group", ID: groupID}
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", groupID, err)
	}
	g.Type = core.GroupType(groupType)
	g.EffectiveDate = fromPgDate(eff)
	g.ExpirationDate = fromPgDate(exp)

	rows, err := q.Query(ctx, `SELECT id, group_id, product_name, region, unit_price, minimum_price,
			effective_date, expiration_date, status,
			quote_name, project_name, uom, contract_id, generator_id, vendor_id,
			container_size, billing_uom, pricing_type, price_priority
		FROM pricing_items WHERE group_id = $1 ORDER BY seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("get items of %s: %w", groupID, err)
	}
	g.Items, err = pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scan items of %s: %w", groupID, err)
	}
	return &g, nil
}

func scanItem(row pgx.CollectableRow) (core.PricingItem, error) {
	var (
		it                 core.PricingItem
		unitPrice, minimum pgtype.Numeric
		eff, exp           pgtype.Date
		opt                [10]pgtype.Text
	)
	err := row.Scan(
		&it.ID, &it.GroupID, &it.ProductName, &it.Region, &unitPrice, &minimum,
		&eff, &exp, &it.Status,
		&opt[0], &opt[1], &opt[2], &opt[3], &opt[4], &opt[5], &opt[6], &opt[7], &opt[8], &opt[9],
	)
	if err != nil {
		return core.PricingItem{}, err
	}

	it.UnitPrice = fromPgNumeric(unitPrice)
	it.MinimumPrice = fromPgNumeric(minimum)
	it.EffectiveDate = fromPgDate(eff)
	it.ExpirationDate = fromPgDate(exp)
	it.QuoteName = opt[0].String
	it.ProjectName = opt[1].String
	it.UOM = opt[2].String
	it.ContractID = opt[3].String
	it.GeneratorID = opt[4].String
	it.VendorID = opt[5].String
	it.ContainerSize = opt[6].String
	it.BillingUOM = opt[7].String
	it.PricingType = opt[8].String
	it.PricePriority = opt[9].String
	return it, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
