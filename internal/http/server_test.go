package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/storage"
)

// fakeRepo implements every store port in memory.
type fakeRepo struct {
	transactions []core.Transaction
	cards        []core.CreditCard
	expenses     []core.CardExpense
	icons        []core.CustomIcon
	wiped        bool
}

func (f *fakeRepo) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	f.transactions = append(f.transactions, t)
	return t, nil
}

func (f *fakeRepo) ListTransactions(ctx context.Context, from, to *time.Time) ([]core.Transaction, error) {
	if from == nil || to == nil {
		return f.transactions, nil
	}
	out := []core.Transaction{}
	for _, t := range f.transactions {
		if !t.Date.Before(*from) && t.Date.Before(*to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateTransaction(ctx context.Context, id string, patch storage.TransactionPatch) (core.Transaction, error) {
	for i, t := range f.transactions {
		if t.ID != id {
			continue
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Amount != nil {
			t.Amount = *patch.Amount
		}
		f.transactions[i] = t
		return t, nil
	}
	return core.Transaction{}, storage.ErrNotFound
}

func (f *fakeRepo) DeleteTransaction(ctx context.Context, id string) error {
	for i, t := range f.transactions {
		if t.ID == id {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) CreateCard(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	c.ID = uuid.NewString()
	f.cards = append(f.cards, c)
	return c, nil
}

func (f *fakeRepo) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	return f.cards, nil
}

func (f *fakeRepo) UpdateCard(ctx context.Context, id string, c core.CreditCard) (core.CreditCard, error) {
	for i, existing := range f.cards {
		if existing.ID == id {
			c.ID = id
			f.cards[i] = c
			return c, nil
		}
	}
	return core.CreditCard{}, storage.ErrNotFound
}

func (f *fakeRepo) DeleteCardCascade(ctx context.Context, id string) error {
	for i, c := range f.cards {
		if c.ID == id {
			f.cards = append(f.cards[:i], f.cards[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) CreateCardExpense(ctx context.Context, e core.CardExpense) (core.CardExpense, error) {
	found := false
	for _, c := range f.cards {
		if c.ID == e.CardID {
			found = true
			break
		}
	}
	if !found {
		return core.CardExpense{}, storage.ErrNotFound
	}
	e.ID = uuid.NewString()
	f.expenses = append(f.expenses, e)
	return e, nil
}

func (f *fakeRepo) ListCardExpenses(ctx context.Context, cardID string, from, to time.Time) ([]core.CardExpense, error) {
	out := []core.CardExpense{}
	for _, e := range f.expenses {
		if e.CardID == cardID && !e.PurchaseDate.Before(from) && e.PurchaseDate.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteCardExpense(ctx context.Context, id string) error {
	for i, e := range f.expenses {
		if e.ID == id {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) ListIcons(ctx context.Context) ([]core.CustomIcon, error) {
	return f.icons, nil
}

func (f *fakeRepo) UpsertIcon(ctx context.Context, icon core.CustomIcon) (core.CustomIcon, error) {
	for i, existing := range f.icons {
		if existing.Keyword == icon.Keyword {
			icon.ID = existing.ID
			f.icons[i] = icon
			return icon, nil
		}
	}
	icon.ID = uuid.NewString()
	f.icons = append(f.icons, icon)
	return icon, nil
}

func (f *fakeRepo) DeleteIcon(ctx context.Context, id string) error {
	for i, icon := range f.icons {
		if icon.ID == id {
			f.icons = append(f.icons[:i], f.icons[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) DumpAll(ctx context.Context) (core.Backup, error) {
	return core.Backup{
		Transactions: f.transactions,
		Cards:        f.cards,
		Expenses:     f.expenses,
		Icons:        f.icons,
	}, nil
}

func (f *fakeRepo) RestoreAll(ctx context.Context, b core.Backup) error {
	f.transactions = b.Transactions
	f.cards = b.Cards
	f.expenses = b.Expenses
	f.icons = b.Icons
	return nil
}

func (f *fakeRepo) WipeAll(ctx context.Context) error {
	f.transactions, f.cards, f.expenses, f.icons = nil, nil, nil, nil
	f.wiped = true
	return nil
}

func newTestServer(repo *fakeRepo) *Server {
	return NewServer(":0", Deps{
		Transactions: repo,
		Cards:        repo,
		Icons:        repo,
		Backups:      repo,
	})
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndIndex(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Contas") {
		t.Fatalf("index body missing heading")
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantInBody string
	}{
		{
			name:       "empty description",
			body:       `{"description":"","amount":10,"type":"EXPENSE","date":"2024-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "description",
		},
		{
			name:       "whitespace description",
			body:       `{"description":"   ","amount":10,"type":"EXPENSE","date":"2024-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "description",
		},
		{
			name:       "bad type",
			body:       `{"description":"x","amount":10,"type":"OTHER","date":"2024-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "INCOME or EXPENSE",
		},
		{
			name:       "malformed date",
			body:       `{"description":"x","amount":10,"type":"EXPENSE","date":"03/01/2024"}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "date",
		},
		{
			name:       "negative amount",
			body:       `{"description":"x","amount":-5,"type":"EXPENSE","date":"2024-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "amount",
		},
		{
			name:       "not json",
			body:       `{{`,
			wantStatus: http.StatusBadRequest,
			wantInBody: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.wantInBody) {
				t.Fatalf("body %q does not mention %q", rr.Body.String(), tt.wantInBody)
			}
		})
	}
}

func TestCreateTransactionDefaultsCategory(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"description":"mercado","amount":"99.90","type":"EXPENSE","category":"  ","date":"2024-03-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var created core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Category != core.DefaultCategory {
		t.Fatalf("category = %q, want %q", created.Category, core.DefaultCategory)
	}
	if created.ID == "" {
		t.Fatalf("expected id in response")
	}
	if got := core.ToISODateOnly(created.Date.Time); got != "2024-03-01" {
		t.Fatalf("date = %s, want 2024-03-01", got)
	}
}

func TestListTransactionsMonthFilter(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	for _, day := range []string{"2024-02-10", "2024-03-05"} {
		rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
			`{"description":"`+day+`","amount":1,"type":"EXPENSE","date":"`+day+`"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("seed %s: status %d", day, rr.Code)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/transactions?month=2&year=2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var list []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Description != "2024-02-10" {
		t.Fatalf("month filter wrong: %+v", list)
	}

	// Unparseable params fall back to the full ledger.
	rr = doJSON(t, srv, http.MethodGet, "/api/transactions?month=abc&year=2024", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected unfiltered list of 2, got %d", len(list))
	}
}

func TestUpdateTransaction(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"description":"antes","amount":1,"type":"EXPENSE","date":"2024-03-01"}`)
	var created core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions",
		`{"id":"`+created.ID+`","payload":{"description":"depois"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var updated core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Description != "depois" {
		t.Fatalf("description = %q", updated.Description)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions", `{"payload":{"description":"x"}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions", `{"id":"nope","payload":{"description":"x"}}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d", rr.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodDelete, "/api/transactions", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing id: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"description":"x","amount":1,"type":"EXPENSE","date":"2024-03-01"}`)
	var created core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions?id="+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("body = %s", rr.Body.String())
	}
	if len(repo.transactions) != 0 {
		t.Fatalf("transaction not deleted")
	}
}

func TestCardsWithCurrentBill(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodPost, "/api/cards",
		`{"name":"nubank","limit":"1000.00","closingDay":17,"dueDay":24}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create card: status %d body %s", rr.Code, rr.Body.String())
	}
	var card core.CreditCard
	if err := json.Unmarshal(rr.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}

	for _, e := range []struct{ day, amount string }{
		{"2024-02-20", "300.00"},
		{"2024-03-10", "150.00"},
		{"2024-03-17", "999.00"}, // on the closing day, belongs to the next bill
	} {
		rr := doJSON(t, srv, http.MethodPost, "/api/card-expenses",
			`{"cardId":"`+card.ID+`","description":"compra","totalAmount":"`+e.amount+`","purchaseDate":"`+e.day+`"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create expense %s: status %d body %s", e.day, rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/cards?month=3&year=2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	var withBills []struct {
		core.CreditCard
		CurrentBill *core.BillSummary `json:"currentBill"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &withBills); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(withBills) != 1 || withBills[0].CurrentBill == nil {
		t.Fatalf("expected one card with bill, got %+v", withBills)
	}
	bill := withBills[0].CurrentBill
	if !bill.Total.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("total = %s, want 450.00", bill.Total)
	}
	if !bill.Available.Equal(decimal.RequireFromString("550.00")) {
		t.Fatalf("available = %s, want 550.00", bill.Available)
	}
	if len(bill.Expenses) != 2 {
		t.Fatalf("expenses in bill = %d, want 2", len(bill.Expenses))
	}

	// Without month/year the bill is omitted.
	rr = doJSON(t, srv, http.MethodGet, "/api/cards", "")
	if strings.Contains(rr.Body.String(), "currentBill") {
		t.Fatalf("unexpected currentBill without period: %s", rr.Body.String())
	}
}

func TestCreateCardExpenseUnknownCard(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	rr := doJSON(t, srv, http.MethodPost, "/api/card-expenses",
		`{"cardId":"nope","description":"compra","totalAmount":"10","purchaseDate":"2024-03-01"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "card not found") {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestCardValidation(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	rr := doJSON(t, srv, http.MethodPost, "/api/cards",
		`{"name":"nubank","limit":"1000","closingDay":0,"dueDay":24}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "closingDay") {
		t.Fatalf("body = %s", rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/cards/nope",
		`{"name":"nubank","limit":"1000","closingDay":17,"dueDay":24}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update unknown card: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/cards/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete unknown card: status = %d", rr.Code)
	}
}

func TestIconUpsertEndpoint(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodPost, "/api/custom-icons", `{"keyword":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty keyword: status = %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/custom-icons", `{"keyword":"uber","brandTerm":"uber"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/custom-icons", `{"keyword":"uber","customImageUrl":"https://x/y.png"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upsert status = %d", rr.Code)
	}
	if len(repo.icons) != 1 {
		t.Fatalf("upsert created duplicate: %d icons", len(repo.icons))
	}
}

func TestBackupEndpoints(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"description":"x","amount":1,"type":"EXPENSE","date":"2024-03-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("seed: status %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/backup", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("download: status %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "finance-backup.json") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	var dump core.Backup
	if err := json.Unmarshal(rr.Body.Bytes(), &dump); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if len(dump.Transactions) != 1 {
		t.Fatalf("dump transactions = %d", len(dump.Transactions))
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/backup", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("wipe: status %d", rr.Code)
	}
	if !repo.wiped || len(repo.transactions) != 0 {
		t.Fatalf("wipe did not clear data")
	}

	body, err := json.Marshal(dump)
	if err != nil {
		t.Fatalf("marshal dump: %v", err)
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/backup", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("restore: status %d body %s", rr.Code, rr.Body.String())
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("restore did not repopulate")
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/backup", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad payload: status %d", rr.Code)
	}
}

func TestRestoreBackupLargePayload(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	// A backup the size of years of history must round-trip through POST.
	backup := core.Backup{Cards: []core.CreditCard{}, Expenses: []core.CardExpense{}, Icons: []core.CustomIcon{}}
	for i := 0; i < 6000; i++ {
		backup.Transactions = append(backup.Transactions, core.Transaction{
			ID:          uuid.NewString(),
			Description: strings.Repeat("compra detalhada no mercado ", 10),
			Amount:      decimal.RequireFromString("123.45"),
			Type:        core.Expense,
			Category:    core.DefaultCategory,
			Date:        core.NewDate(2024, 1+i%12, 1+i%28),
		})
	}
	body, err := json.Marshal(backup)
	if err != nil {
		t.Fatalf("marshal backup: %v", err)
	}
	if len(body) <= maxBodyBytes {
		t.Fatalf("fixture too small to exercise the backup limit: %d bytes", len(body))
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/backup", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("restore: status %d body %.200s", rr.Code, rr.Body.String())
	}
	if len(repo.transactions) != 6000 {
		t.Fatalf("restored %d transactions, want 6000", len(repo.transactions))
	}
}

func TestOversizedBodyReportsLimit(t *testing.T) {
	srv := newTestServer(&fakeRepo{})

	big := `{"description":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", big)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "request body too large") {
		t.Fatalf("body = %.200s", rr.Body.String())
	}
}

func TestCardsBillMonthRollover(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo)

	rr := doJSON(t, srv, http.MethodPost, "/api/cards",
		`{"name":"nubank","limit":"1000.00","closingDay":17,"dueDay":24}`)
	var card core.CreditCard
	if err := json.Unmarshal(rr.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/card-expenses",
		`{"cardId":"`+card.ID+`","description":"compra","totalAmount":"200.00","purchaseDate":"2024-12-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("seed expense: status %d", rr.Code)
	}

	// month=13/2024 normalizes to January 2025: range [2024-12-17, 2025-01-17).
	rr = doJSON(t, srv, http.MethodGet, "/api/cards?month=13&year=2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var withBills []struct {
		core.CreditCard
		CurrentBill *core.BillSummary `json:"currentBill"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &withBills); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(withBills) != 1 || withBills[0].CurrentBill == nil {
		t.Fatalf("expected a bill for the rolled-over month, got %+v", withBills)
	}
	if !withBills[0].CurrentBill.Total.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("total = %s, want 200.00", withBills[0].CurrentBill.Total)
	}
}

func TestRequestLogFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	srv := newTestServer(&fakeRepo{})
	rr := doJSON(t, srv, http.MethodGet, "/api/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	logged := buf.String()
	for _, field := range []string{
		applog.FieldComponent, applog.FieldRequestID, applog.FieldMethod,
		applog.FieldPath, applog.FieldStatus, applog.FieldDuration,
	} {
		if !strings.Contains(logged, `"`+field+`"`) {
			t.Fatalf("request logs missing field %q: %s", field, logged)
		}
	}
	if !strings.Contains(logged, `"`+applog.ComponentHTTP+`"`) {
		t.Fatalf("request logs missing http component: %s", logged)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newIPRateLimiter(1, 2)
	defer rl.stop()

	allowed := 0
	for i := 0; i < 5; i++ {
		if rl.allow("1.2.3.4") {
			allowed++
		}
	}
	if allowed > 2 {
		t.Fatalf("burst of 2 allowed %d requests", allowed)
	}
	// Another client has its own bucket.
	if !rl.allow("5.6.7.8") {
		t.Fatalf("independent client should be allowed")
	}
}
