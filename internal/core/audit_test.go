package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
	lastQ   AuditQuery
}

func (f *fakeAudit) RecordAudit(ctx context.Context, e AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) ListAudit(_ context.Context, q AuditQuery) ([]AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = q
	return nil, f.err
}

func (f *fakeAudit) last(t *testing.T) AuditEntry {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return f.entries[len(f.entries)-1]
}

func TestAudit_AcceptedSubmission(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewService(newFakeStore(), WithAudit(audit))

	ctx := ContextWithClientIP(context.Background(), "198.51.100.4")
	ctx = ContextWithUserAgent(ctx, "curl/8")
	res, err := svc.CreatePricing(ctx, Submission{
		Type:       GroupTypeNew,
		CustomerID: "c1",
		GroupName:  "Standard",
		Upload:     csvUpload(pricingCSV),
	})
	if err != nil {
		t.Fatalf("CreatePricing() error = %v", err)
	}

	e := audit.last(t)
	if e.Outcome != AuditAccepted || e.Kind != KindNew {
		t.Errorf("outcome/kind = %s/%s, want accepted/new", e.Outcome, e.Kind)
	}
	if e.GroupID != res.GroupID || e.CustomerID != "c1" || e.RowsAffected != 2 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.IPAddress != "198.51.100.4" || e.UserAgent != "curl/8" || e.Filename != "pricing.csv" {
		t.Errorf("request metadata not recorded: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("ID and CreatedAt must be set: %+v", e)
	}
}

func TestAudit_RejectedSubmission(t *testing.T) {
	tests := []struct {
		name         string
		sub          Submission
		wantCode     string
		wantRejected int
		wantGroup    string
	}{
		{
			name: "row errors",
			sub: Submission{
				Type: GroupTypeNew, CustomerID: "c1", GroupName: "G",
				Upload: csvUpload(pricingCSV + "Bad,West,0,1,2024-01-01,2024-12-31,active\n"),
			},
			wantCode:     "VAL005",
			wantRejected: 1,
		},
		{
			name: "unknown addendum group",
			sub: Submission{
				Type: GroupTypeAddendum, TargetGroupID: "PH-404",
				Upload: csvUpload(pricingCSV),
			},
			wantCode:  "PRC001",
			wantGroup: "PH-404",
		},
		{
			name:     "no input",
			sub:      Submission{Type: GroupTypeNew, CustomerID: "c1", GroupName: "G"},
			wantCode: "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &fakeAudit{}
			svc := NewService(newFakeStore(), WithAudit(audit))

			if _, err := svc.CreatePricing(context.Background(), tt.sub); err == nil {
				t.Fatal("expected error")
			}

			e := audit.last(t)
			if e.Outcome != AuditRejected {
				t.Errorf("Outcome = %s, want rejected", e.Outcome)
			}
			if e.ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %s, want %s", e.ErrorCode, tt.wantCode)
			}
			if e.RowsRejected != tt.wantRejected {
				t.Errorf("RowsRejected = %d, want %d", e.RowsRejected, tt.wantRejected)
			}
			if e.GroupID != tt.wantGroup {
				t.Errorf("GroupID = %q, want %q", e.GroupID, tt.wantGroup)
			}
			if e.Reason == "" {
				t.Error("Reason should carry the user message")
			}
		})
	}
}

func TestAudit_FailedOutcome(t *testing.T) {
	e := newAuditEntry(context.Background(), KindBulk, nil, errors.New("disk on fire"))
	if e.Outcome != AuditFailed || e.ErrorCode != "ERR000" {
		t.Errorf("outcome/code = %s/%s, want failed/ERR000", e.Outcome, e.ErrorCode)
	}
}

func TestAudit_BulkAdd(t *testing.T) {
	store := newFakeStore()
	store.groups["PH-3"] = &PricingGroup{ID: "PH-3"}
	audit := &fakeAudit{}
	svc := NewService(store, WithAudit(audit))

	if _, err := svc.BulkAdd(context.Background(), " PH-3 ", [][]string{{"Widget", "West", "1", "1"}}); err != nil {
		t.Fatalf("BulkAdd() error = %v", err)
	}

	e := audit.last(t)
	if e.Kind != KindBulk || e.GroupID != "PH-3" || e.RowsAffected != 1 {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestAudit_CancelledRequestStillRecorded(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewService(newFakeStore(), WithAudit(audit))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.CreatePricing(ctx, Submission{Type: "bogus"})

	if e := audit.last(t); e.ErrorCode != "VAL006" {
		t.Errorf("ErrorCode = %s, want VAL006", e.ErrorCode)
	}
}

func TestAudit_WriteFailureDoesNotFailSubmission(t *testing.T) {
	audit := &fakeAudit{err: errors.New("audit table missing")}
	svc := NewService(newFakeStore(), WithAudit(audit))

	_, err := svc.CreatePricing(context.Background(), Submission{
		Type: GroupTypeNew, CustomerID: "c1", GroupName: "G", Upload: csvUpload(pricingCSV),
	})
	if err != nil {
		t.Fatalf("CreatePricing() error = %v, want nil", err)
	}
}

func TestAuditTrail(t *testing.T) {
	t.Run("no audit log", func(t *testing.T) {
		entries, err := NewService(newFakeStore()).AuditTrail(context.Background(), AuditQuery{})
		if err != nil || entries == nil || len(entries) != 0 {
			t.Errorf("AuditTrail() = %v, %v, want empty list", entries, err)
		}
	})

	tests := []struct {
		limit, want int
	}{
		{0, DefaultAuditLimit},
		{-3, DefaultAuditLimit},
		{10, 10},
		{MaxAuditLimit + 1, MaxAuditLimit},
	}
	for _, tt := range tests {
		audit := &fakeAudit{}
		svc := NewService(newFakeStore(), WithAudit(audit))

		entries, err := svc.AuditTrail(context.Background(), AuditQuery{GroupID: "PH-1", Limit: tt.limit})
		if err != nil {
			t.Fatalf("AuditTrail() error = %v", err)
		}
		if entries == nil {
			t.Error("AuditTrail() should return a non-nil slice")
		}
		if audit.lastQ.Limit != tt.want || audit.lastQ.GroupID != "PH-1" {
			t.Errorf("limit %d: query = %+v, want limit %d", tt.limit, audit.lastQ, tt.want)
		}
	}
}
