package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/pricing/internal/logging"
	"github.com/JonMunkholm/pricing/internal/metrics"
	"github.com/JonMunkholm/pricing/internal/sheet"
	"github.com/google/uuid"
)

// Submission kinds, used as metric labels.
const (
	KindNew      = "new"
	KindAddendum = "addendum"
	KindBulk     = "bulk"
	KindPreview  = "preview"
)

var (
	// ErrInvalidSubmissionType is returned for a type tag other than new or addendum.
	ErrInvalidSubmissionType = errors.New("invalid submission type")

	// ErrNoPricingRows is returned when an upload has a header but no data rows.
	ErrNoPricingRows = errors.New("no rows found below the header")
)

// Store is the persistence the service needs. Implementations must be safe
// for concurrent use, and AppendItems must number new items atomically with
// respect to other appends on the same group.
type Store interface {
	SearchCustomers(ctx context.Context, query string) ([]Customer, error)
	ListGroups(ctx context.Context, customerID string) ([]GroupSummary, error)
	// GetGroup returns *NotFoundError when groupID is unknown.
	GetGroup(ctx context.Context, groupID string) (*PricingGroup, error)
	CreateGroup(ctx context.Context, g *PricingGroup) error
	// AppendItems assigns item IDs with AssignItemIDs, stores the items, and
	// returns the updated group. Returns *NotFoundError when groupID is unknown.
	AppendItems(ctx context.Context, groupID string, items []PricingItem) (*PricingGroup, error)
	Ping(ctx context.Context) error
}

// Service runs the pricing submission pipeline over a Store.
type Service struct {
	store   Store
	builder *Builder
	limiter *UploadLimiter
	metrics *metrics.SubmissionMetrics
	audit   AuditLog
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter caps concurrent submissions.
func WithLimiter(l *UploadLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithMetrics records submission metrics.
func WithMetrics(m *metrics.SubmissionMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBuilder replaces the default group builder.
func WithBuilder(b *Builder) Option {
	return func(s *Service) { s.builder = b }
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		builder: NewBuilder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodeUpload turns an upload into a grid. File bytes win over pasted text.
func DecodeUpload(u Upload) ([][]string, error) {
	switch {
	case len(u.Data) > 0:
		format, err := sheet.DetectFormat(u.Filename, u.ContentType)
		if err != nil {
			return nil, &UnsupportedMediaTypeError{Filename: u.Filename, ContentType: u.ContentType}
		}
		rows, err := sheet.Decode(format, u.Data)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return rows, nil

	case strings.TrimSpace(u.Pasted) != "":
		rows := sheet.DecodePaste(u.Pasted)
		if len(rows) == 0 {
			return nil, &DecodeError{Err: sheet.ErrNoRows}
		}
		return rows, nil

	default:
		return nil, &InputMissingError{Field: "file"}
	}
}

// readItems runs decode, column mapping, and batch validation.
func readItems(u Upload) ([]PricingItem, error) {
	rows, err := DecodeUpload(u)
	if err != nil {
		return nil, err
	}
	mapped, err := MapColumns(rows)
	if err != nil {
		return nil, err
	}
	if len(mapped) == 0 {
		return nil, ErrNoPricingRows
	}
	return ValidateBatch(mapped)
}

func checkSubmission(sub Submission) error {
	switch sub.Type {
	case GroupTypeNew:
		if strings.TrimSpace(sub.CustomerID) == "" {
			return &InputMissingError{Field: "customerId"}
		}
		if strings.TrimSpace(sub.GroupName) == "" {
			return &InputMissingError{Field: "groupName"}
		}
	case GroupTypeAddendum:
		if strings.TrimSpace(sub.TargetGroupID) == "" {
			return &InputMissingError{Field: "targetGroupId"}
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSubmissionType, sub.Type)
	}
	return nil
}

// CreatePricing validates every row of the upload and, only if all pass,
// stores them as a new group or appends them to an existing one.
func (s *Service) CreatePricing(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	kind := string(sub.Type)
	if _, ok := ParseGroupType(kind); !ok {
		kind = "invalid"
	}
	log := logging.WithFields(ctx,
		"submission_id", uuid.NewString(),
		"type", sub.Type,
		"file", sub.Upload.Filename,
		"client_ip", ClientIPFromContext(ctx),
	)
	start := time.Now()

	result, err := s.createPricing(ctx, sub)
	s.record(kind, start, result, err)

	entry := newAuditEntry(ctx, kind, result, err)
	entry.CustomerID = sub.CustomerID
	entry.Filename = sub.Upload.Filename
	if entry.GroupID == "" {
		entry.GroupID = sub.TargetGroupID
	}
	s.recordAudit(ctx, entry)

	if err != nil {
		log.Info("pricing submission rejected", "error", err, "duration", time.Since(start))
		return nil, err
	}
	log.Info("pricing submission accepted",
		"group_id", result.GroupID,
		"items", result.ItemCount,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *Service) createPricing(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if err := checkSubmission(sub); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	items, err := readItems(sub.Upload)
	if err != nil {
		return nil, err
	}

	if sub.Type == GroupTypeNew {
		g := s.builder.NewGroup(GroupMeta{
			CustomerID:   sub.CustomerID,
			Name:         sub.GroupName,
			Description:  sub.Description,
			Template:     sub.Template,
			CustomFields: sub.CustomFields,
		}, items)
		if err := s.store.CreateGroup(ctx, g); err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		return &SubmissionResult{
			GroupID:   g.ID,
			GroupName: g.Name,
			ItemCount: len(g.Items),
			Items:     g.Items,
		}, nil
	}

	return s.appendItems(ctx, strings.TrimSpace(sub.TargetGroupID), items)
}

func (s *Service) appendItems(ctx context.Context, groupID string, items []PricingItem) (*SubmissionResult, error) {
	g, err := s.store.AppendItems(ctx, groupID, items)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("append items: %w", err)
	}

	appended := g.Items[len(g.Items)-len(items):]
	return &SubmissionResult{
		GroupID:   g.ID,
		GroupName: g.Name,
		ItemCount: len(appended),
		Items:     appended,
	}, nil
}

// PreviewPricing runs the same checks as CreatePricing without storing
// anything. Row failures are reported in the result rather than as an error;
// input, decode, and schema problems are still errors.
func (s *Service) PreviewPricing(ctx context.Context, u Upload) (*PreviewResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(KindPreview, time.Since(start)) }()

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := DecodeUpload(u)
	if err != nil {
		return nil, err
	}
	mapped, err := MapColumns(rows)
	if err != nil {
		return nil, err
	}

	preview := &PreviewResult{
		Columns:  rows[0],
		RowCount: len(mapped),
		Items:    []PricingItem{},
		Errors:   []string{},
	}

	items, err := ValidateBatch(mapped)
	var rowErrs ValidationErrors
	switch {
	case errors.As(err, &rowErrs):
		preview.Errors = rowErrs.Messages()
	case err != nil:
		return nil, err
	default:
		preview.Items = items
		preview.ItemCount = len(items)
		preview.Valid = len(items) > 0
	}
	return preview, nil
}

// BulkAdd appends rows addressed by column position to an existing group.
// See ParsePositionalRows for how loosely rows are read.
func (s *Service) BulkAdd(ctx context.Context, groupID string, rows [][]string) (*SubmissionResult, error) {
	log := logging.WithFields(ctx, "group_id", groupID, "rows", len(rows))
	start := time.Now()

	result, err := s.bulkAdd(ctx, groupID, rows)
	s.record(KindBulk, start, result, err)

	entry := newAuditEntry(ctx, KindBulk, result, err)
	if entry.GroupID == "" {
		entry.GroupID = strings.TrimSpace(groupID)
	}
	s.recordAudit(ctx, entry)
	if err != nil {
		log.Info("bulk add rejected", "error", err)
		return nil, err
	}
	log.Info("bulk add accepted", "items", result.ItemCount)
	return result, nil
}

func (s *Service) bulkAdd(ctx context.Context, groupID string, rows [][]string) (*SubmissionResult, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, &InputMissingError{Field: "groupId"}
	}

	items := ParsePositionalRows(rows)
	if len(items) == 0 {
		return nil, ErrNoPricingRows
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.appendItems(ctx, groupID, items)
}

// WriteTemplate writes the pricing template workbook to w.
func (s *Service) WriteTemplate(w io.Writer) error {
	return sheet.Encode(w, TemplateWorkbook())
}

// SearchCustomers matches customers by name, ID, or code. A blank query
// matches nothing.
func (s *Service) SearchCustomers(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Customer{}, nil
	}
	customers, err := s.store.SearchCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	if customers == nil {
		customers = []Customer{}
	}
	return customers, nil
}

// ListGroups returns the pricing groups of one customer.
func (s *Service) ListGroups(ctx context.Context, customerID string) ([]GroupSummary, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, &InputMissingError{Field: "customerId"}
	}
	groups, err := s.store.ListGroups(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []GroupSummary{}
	}
	return groups, nil
}

// GetGroup returns one group with its items.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*PricingGroup, error) {
	return s.store.GetGroup(ctx, strings.TrimSpace(groupID))
}

// GetGroupItems returns the items of one group. A group with no items yields
// an empty slice; an unknown group yields *NotFoundError.
func (s *Service) GetGroupItems(ctx context.Context, groupID string) ([]PricingItem, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.Items == nil {
		return []PricingItem{}, nil
	}
	return g.Items, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus reports submission slot usage. Zero when no limiter is set.
func (s *Service) LimiterStatus() UploadLimiterStatus {
	if s.limiter == nil {
		return UploadLimiterStatus{}
	}
	return s.limiter.Status()
}

// Drain waits for in-flight submissions to finish.
func (s *Service) Drain(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.limiter == nil {
		return func() {}, nil
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return s.limiter.Release, nil
}

func (s *Service) record(kind string, start time.Time, result *SubmissionResult, err error) {
	s.metrics.ObserveDuration(kind, time.Since(start))

	var rowErrs ValidationErrors
	switch {
	case err == nil:
		s.metrics.IncSubmission(kind, metrics.OutcomeAccepted)
		s.metrics.AddItemsCreated(kind, result.ItemCount)
	case errors.As(err, &rowErrs):
		s.metrics.IncSubmission(kind, metrics.OutcomeRejected)
		s.metrics.AddRejectedRows(kind, len(rowErrs))
	case IsUserFacing(err):
		s.metrics.IncSubmission(kind, metrics.OutcomeRejected)
	default:
		s.metrics.IncSubmission(kind, metrics.OutcomeFailed)
	}
}
