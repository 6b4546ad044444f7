package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-package Store for service tests.
type fakeStore struct {
	mu        sync.Mutex
	customers []Customer
	groups    map[string]*PricingGroup
	creates   int
	appends   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{groups: map[string]*PricingGroup{}}
}

func (f *fakeStore) SearchCustomers(_ context.Context, query string) ([]Customer, error) {
	var out []Customer
	for _, c := range f.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListGroups(_ context.Context, customerID string) ([]GroupSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []GroupSummary
	for _, g := range f.groups {
		if g.CustomerID == customerID {
			out = append(out, g.Summary())
		}
	}
	return out, nil
}

func (f *fakeStore) GetGroup(_ context.Context, groupID string) (*PricingGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, &NotFoundError{Resource: "pricing group", ID: groupID}
	}
	cp := *g
	return &cp, nil
}

func (f *fakeStore) CreateGroup(_ context.Context, g *PricingGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.groups[g.ID] = g
	return nil
}

func (f *fakeStore) AppendItems(_ context.Context, groupID string, items []PricingItem) (*PricingGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, &NotFoundError{Resource: "pricing group", ID: groupID}
	}
	f.appends++
	g.Items = append(g.Items, AssignItemIDs(groupID, len(g.Items), items)...)
	cp := *g
	return &cp, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

const pricingCSV = "Product Name,Region,Unit Price,Minimum Price,Effective Date,Expiration Date,Status\n" +
	"Widget,West,10.50,5,2024-01-01,2024-12-31,active\n" +
	"Gadget,East,20,8,2024-02-01,2024-11-30,Pending\n"

func csvUpload(body string) Upload {
	return Upload{Filename: "pricing.csv", ContentType: "text/csv", Data: []byte(body)}
}

func newTestService(store Store) *Service {
	return NewService(store,
		WithBuilder(fixedBuilder(42, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))),
		WithLimiter(NewUploadLimiter(2, time.Second, nil)),
	)
}

func TestService_CreatePricing_New(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	res, err := svc.CreatePricing(context.Background(), Submission{
		Type:       GroupTypeNew,
		CustomerID: "C-1",
		GroupName:  "Standard",
		Upload:     csvUpload(pricingCSV),
	})
	if err != nil {
		t.Fatalf("CreatePricing() error = %v", err)
	}

	if res.GroupID != "PH-42" || res.GroupName != "Standard" || res.ItemCount != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Items[1].ID != "PI-PH-42-2" || res.Items[1].Status != StatusPending {
		t.Errorf("unexpected second item: %+v", res.Items[1])
	}
	if store.creates != 1 {
		t.Errorf("creates = %d, want 1", store.creates)
	}
}

func TestService_CreatePricing_TemplateOptional(t *testing.T) {
	for _, tmpl := range []string{"", "Standard v2"} {
		store := newFakeStore()
		svc := newTestService(store)

		res, err := svc.CreatePricing(context.Background(), Submission{
			Type:       GroupTypeNew,
			CustomerID: "C-1",
			GroupName:  "Standard",
			Template:   tmpl,
			Upload:     csvUpload(pricingCSV),
		})
		if err != nil {
			t.Fatalf("template %q: CreatePricing() error = %v", tmpl, err)
		}
		if got := store.groups[res.GroupID].Template; got != tmpl {
			t.Errorf("stored Template = %q, want %q", got, tmpl)
		}
	}
}

func TestService_CreatePricing_InvalidRowSavesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	body := "Product Name,Region,Unit Price,Minimum Price,Effective Date,Expiration Date,Status\n" +
		"Widget,West,10,5,2024-01-01,2024-12-31,active\n" +
		"Gadget,,20,8,2024-01-01,2024-12-31,active\n"

	_, err := svc.CreatePricing(context.Background(), Submission{
		Type:       GroupTypeNew,
		CustomerID: "C-1",
		GroupName:  "Standard",
		Upload:     csvUpload(body),
	})

	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(ve) != 1 || ve[0].Error() != "Row 3: Region is required" {
		t.Errorf("errors = %v", ve.Messages())
	}
	if store.creates != 0 || len(store.groups) != 0 {
		t.Errorf("store changed after rejected submission: %d creates", store.creates)
	}
}

func TestService_CreatePricing_Addendum(t *testing.T) {
	store := newFakeStore()
	store.groups["PH-7"] = &PricingGroup{
		ID:    "PH-7",
		Name:  "Existing",
		Items: AssignItemIDs("PH-7", 0, []PricingItem{{ProductName: "Old"}}),
	}
	svc := newTestService(store)

	res, err := svc.CreatePricing(context.Background(), Submission{
		Type:          GroupTypeAddendum,
		TargetGroupID: " PH-7 ",
		Upload:        csvUpload(pricingCSV),
	})
	if err != nil {
		t.Fatalf("CreatePricing() error = %v", err)
	}

	if res.GroupID != "PH-7" || res.ItemCount != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Items[0].ID != "PI-PH-7-2" || res.Items[1].ID != "PI-PH-7-3" {
		t.Errorf("item IDs = %q, %q, want PI-PH-7-2, PI-PH-7-3", res.Items[0].ID, res.Items[1].ID)
	}
	if len(store.groups["PH-7"].Items) != 3 {
		t.Errorf("group has %d items, want 3", len(store.groups["PH-7"].Items))
	}
}

func TestService_CreatePricing_AddendumUnknownGroup(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.CreatePricing(context.Background(), Submission{
		Type:          GroupTypeAddendum,
		TargetGroupID: "PH-404",
		Upload:        csvUpload(pricingCSV),
	})
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if store.creates != 0 || store.appends != 0 {
		t.Error("nothing should be stored for an unknown group")
	}
}

func TestService_CreatePricing_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		sub   Submission
		check func(error) bool
	}{
		{
			name: "unknown type",
			sub:  Submission{Type: "renewal", Upload: csvUpload(pricingCSV)},
			check: func(err error) bool {
				return errors.Is(err, ErrInvalidSubmissionType)
			},
		},
		{
			name: "new without customer",
			sub:  Submission{Type: GroupTypeNew, GroupName: "G", Upload: csvUpload(pricingCSV)},
			check: func(err error) bool {
				var e *InputMissingError
				return errors.As(err, &e) && e.Field == "customerId"
			},
		},
		{
			name: "new without name",
			sub:  Submission{Type: GroupTypeNew, CustomerID: "C-1", Upload: csvUpload(pricingCSV)},
			check: func(err error) bool {
				var e *InputMissingError
				return errors.As(err, &e) && e.Field == "groupName"
			},
		},
		{
			name: "addendum without target",
			sub:  Submission{Type: GroupTypeAddendum, Upload: csvUpload(pricingCSV)},
			check: func(err error) bool {
				var e *InputMissingError
				return errors.As(err, &e) && e.Field == "targetGroupId"
			},
		},
		{
			name: "no file or paste",
			sub:  Submission{Type: GroupTypeNew, CustomerID: "C-1", GroupName: "G"},
			check: func(err error) bool {
				var e *InputMissingError
				return errors.As(err, &e) && e.Field == "file"
			},
		},
		{
			name: "unsupported media type",
			sub: Submission{Type: GroupTypeNew, CustomerID: "C-1", GroupName: "G", Upload: Upload{
				Filename: "prices.pdf", ContentType: "application/pdf", Data: []byte("%PDF"),
			}},
			check: func(err error) bool {
				var e *UnsupportedMediaTypeError
				return errors.As(err, &e)
			},
		},
		{
			name: "missing columns",
			sub: Submission{Type: GroupTypeNew, CustomerID: "C-1", GroupName: "G",
				Upload: csvUpload("Product Name,Region\nWidget,West\n")},
			check: func(err error) bool {
				var e *SchemaError
				return errors.As(err, &e) && len(e.Missing) == 5
			},
		},
		{
			name: "header only",
			sub: Submission{Type: GroupTypeNew, CustomerID: "C-1", GroupName: "G",
				Upload: csvUpload("Product Name,Region,Unit Price,Minimum Price,Effective Date,Expiration Date,Status\n")},
			check: func(err error) bool {
				return errors.Is(err, ErrNoPricingRows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store)

			_, err := svc.CreatePricing(context.Background(), tt.sub)
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if store.creates != 0 {
				t.Error("store should not be written")
			}
		})
	}
}

func TestService_CreatePricing_PastedRows(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	pasted := "Product Name\tRegion\tUnit Price\tMinimum Price\tEffective Date\tExpiration Date\tStatus\r\n" +
		"Widget\tWest\t10\t5\t1/1/2024\t12/31/2024\tactive\r\n"

	res, err := svc.CreatePricing(context.Background(), Submission{
		Type:       GroupTypeNew,
		CustomerID: "C-1",
		GroupName:  "Pasted",
		Upload:     Upload{Pasted: pasted},
	})
	if err != nil {
		t.Fatalf("CreatePricing() error = %v", err)
	}
	if res.ItemCount != 1 || res.Items[0].ProductName != "Widget" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestService_CreatePricing_LimiterBusy(t *testing.T) {
	limiter := NewUploadLimiter(1, 20*time.Millisecond, nil)
	svc := NewService(newFakeStore(), WithLimiter(limiter))

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	_, err := svc.CreatePricing(context.Background(), Submission{
		Type:       GroupTypeNew,
		CustomerID: "C-1",
		GroupName:  "G",
		Upload:     csvUpload(pricingCSV),
	})
	if !errors.Is(err, ErrTooManySubmissions) {
		t.Errorf("expected ErrTooManySubmissions, got %v", err)
	}
}

func TestService_PreviewPricing(t *testing.T) {
	svc := newTestService(newFakeStore())

	preview, err := svc.PreviewPricing(context.Background(), csvUpload(pricingCSV))
	if err != nil {
		t.Fatalf("PreviewPricing() error = %v", err)
	}
	if !preview.Valid || preview.RowCount != 2 || preview.ItemCount != 2 {
		t.Errorf("unexpected preview: %+v", preview)
	}
	if len(preview.Columns) != 7 || preview.Columns[0] != "Product Name" {
		t.Errorf("Columns = %v", preview.Columns)
	}
	if len(preview.Errors) != 0 {
		t.Errorf("Errors = %v, want none", preview.Errors)
	}
}

func TestService_PreviewPricing_ReportsRowErrors(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	body := "Product Name,Region,Unit Price,Minimum Price,Effective Date,Expiration Date,Status\n" +
		"Widget,West,0,5,2024-01-01,2024-12-31,active\n"

	preview, err := svc.PreviewPricing(context.Background(), csvUpload(body))
	if err != nil {
		t.Fatalf("PreviewPricing() error = %v", err)
	}
	if preview.Valid || preview.ItemCount != 0 {
		t.Errorf("preview should be invalid: %+v", preview)
	}
	if len(preview.Errors) != 1 || preview.Errors[0] != "Row 2: Unit price must be greater than 0" {
		t.Errorf("Errors = %v", preview.Errors)
	}
	if store.creates != 0 {
		t.Error("preview must not store anything")
	}
}

func TestService_BulkAdd(t *testing.T) {
	store := newFakeStore()
	store.groups["PH-3"] = &PricingGroup{ID: "PH-3", Name: "Bulk"}
	svc := newTestService(store)

	res, err := svc.BulkAdd(context.Background(), "PH-3", [][]string{
		{"Widget", "West", "10", "5", "2024-01-01 - 2024-12-31", "active"},
		{"", "skipped"},
		{"Gadget", "East", "bad", "1"},
	})
	if err != nil {
		t.Fatalf("BulkAdd() error = %v", err)
	}
	if res.ItemCount != 2 {
		t.Fatalf("ItemCount = %d, want 2", res.ItemCount)
	}
	if res.Items[0].ID != "PI-PH-3-1" || res.Items[1].ID != "PI-PH-3-2" {
		t.Errorf("item IDs = %q, %q", res.Items[0].ID, res.Items[1].ID)
	}
	if !res.Items[1].UnitPrice.IsZero() {
		t.Errorf("unreadable price should be 0, got %s", res.Items[1].UnitPrice)
	}
}

func TestService_BulkAdd_Errors(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	var missing *InputMissingError
	if _, err := svc.BulkAdd(ctx, " ", [][]string{{"Widget"}}); !errors.As(err, &missing) {
		t.Errorf("blank group: got %v, want InputMissingError", err)
	}
	if _, err := svc.BulkAdd(ctx, "PH-1", [][]string{{""}}); !errors.Is(err, ErrNoPricingRows) {
		t.Errorf("no named rows: got %v, want ErrNoPricingRows", err)
	}
	if _, err := svc.BulkAdd(ctx, "PH-404", [][]string{{"Widget"}}); !IsNotFound(err) {
		t.Errorf("unknown group: got %v, want NotFoundError", err)
	}
}

func TestService_TemplateRoundTrip(t *testing.T) {
	svc := newTestService(newFakeStore())

	var buf bytes.Buffer
	if err := svc.WriteTemplate(&buf); err != nil {
		t.Fatalf("WriteTemplate() error = %v", err)
	}

	rows, err := DecodeUpload(Upload{Filename: TemplateFilename, Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("DecodeUpload() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	for i, want := range TemplateHeader {
		if rows[0][i] != want {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}
	want := []string{"Standard Pricing 2024", "Standard pricing for customer services", "2024-01-01", "2024-12-31", "active", "500", "200", "100"}
	for i, w := range want {
		if rows[1][i] != w {
			t.Errorf("row 1 col %d = %q, want %q", i, rows[1][i], w)
		}
	}
}

func TestService_SearchCustomers(t *testing.T) {
	store := newFakeStore()
	store.customers = []Customer{{ID: "C-1", Name: "Acme Waste"}, {ID: "C-2", Name: "Globex"}}
	svc := newTestService(store)

	got, err := svc.SearchCustomers(context.Background(), "   ")
	if err != nil {
		t.Fatalf("SearchCustomers() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("blank query = %v, want empty non-nil slice", got)
	}

	got, err = svc.SearchCustomers(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SearchCustomers() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "C-1" {
		t.Errorf("search = %v", got)
	}

	got, _ = svc.SearchCustomers(context.Background(), "nobody")
	if got == nil {
		t.Error("no matches should be an empty slice, not nil")
	}
}

func TestService_GroupQueries(t *testing.T) {
	store := newFakeStore()
	store.groups["PH-1"] = &PricingGroup{ID: "PH-1", CustomerID: "C-1", Name: "Empty"}
	svc := newTestService(store)
	ctx := context.Background()

	groups, err := svc.ListGroups(ctx, "C-1")
	if err != nil || len(groups) != 1 {
		t.Fatalf("ListGroups() = %v, %v", groups, err)
	}
	if groups, _ := svc.ListGroups(ctx, "C-9"); groups == nil {
		t.Error("unknown customer should list an empty slice")
	}

	var missing *InputMissingError
	if _, err := svc.ListGroups(ctx, ""); !errors.As(err, &missing) {
		t.Errorf("blank customer: got %v", err)
	}

	items, err := svc.GetGroupItems(ctx, "PH-1")
	if err != nil {
		t.Fatalf("GetGroupItems() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty slice", items)
	}

	if _, err := svc.GetGroup(ctx, "PH-2"); !IsNotFound(err) {
		t.Errorf("GetGroup(unknown) = %v, want NotFoundError", err)
	}
}

func TestService_DrainWithoutLimiter(t *testing.T) {
	svc := NewService(newFakeStore())
	if err := svc.Drain(context.Background()); err != nil {
		t.Errorf("Drain() error = %v", err)
	}
	if got := svc.LimiterStatus(); got.MaxConcurrent != 0 {
		t.Errorf("LimiterStatus() = %+v, want zero", got)
	}
}
