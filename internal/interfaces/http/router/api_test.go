package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appevent "github.com/erp/leasing/internal/application/event"
	ledgerapp "github.com/erp/leasing/internal/application/ledger"
	receivableapp "github.com/erp/leasing/internal/application/receivable"
	terminationapp "github.com/erp/leasing/internal/application/termination"
	"github.com/erp/leasing/internal/infrastructure/cache"
	"github.com/erp/leasing/internal/infrastructure/event"
	"github.com/erp/leasing/internal/infrastructure/persistence"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/erp/leasing/internal/interfaces/http/handler"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testAPI struct {
	t        *testing.T
	engine   *gin.Engine
	auditLog *persistence.GormVoucherAuditLogRepository
	tenantID uuid.UUID
	userID   uuid.UUID
}

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	log := zap.NewNop()
	accountRepo := persistence.NewGormAccountRepository(db)
	voucherRepo := persistence.NewGormJournalVoucherRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	receiptRepo := persistence.NewGormReceiptRepository(db)
	auditRepo := persistence.NewGormVoucherAuditLogRepository(db)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appevent.NewVoucherAuditHandler(auditRepo, log))

	journalService := ledgerapp.NewJournalService(voucherRepo, accountRepo,
		ledgerapp.WithTransactionScope(persistence.NewGormLedgerTransactionScope(db)),
		ledgerapp.WithEventPublisher(bus),
	)
	invoiceService := receivableapp.NewInvoiceService(invoiceRepo)
	receiptService := receivableapp.NewReceiptService(receiptRepo, invoiceRepo,
		receivableapp.WithTransactionScope(persistence.NewGormReceivableTransactionScope(db)),
		receivableapp.WithEventPublisher(bus),
	)
	terminationService := terminationapp.NewTerminationService(persistence.NewGormTerminationRepository(db),
		terminationapp.WithEventPublisher(bus),
	)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	engine, err := NewEngine(EngineConfig{
		Logger:         log,
		CORS:           middleware.DefaultCORSConfig(),
		MaxBodySize:    1 << 20,
		Idempotency:    store,
		IdempotencyTTL: time.Hour,
	}, Handlers{
		System:       handler.NewSystemHandler(&persistence.Database{DB: db}, nil, "test"),
		Accounts:     handler.NewAccountHandler(ledgerapp.NewAccountService(accountRepo)),
		Vouchers:     handler.NewJournalVoucherHandler(journalService),
		Invoices:     handler.NewInvoiceHandler(invoiceService),
		Receipts:     handler.NewReceiptHandler(receiptService),
		Terminations: handler.NewTerminationHandler(terminationService),
	})
	require.NoError(t, err)

	return &testAPI{
		t:        t,
		engine:   engine,
		auditLog: auditRepo,
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

func (a *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, a.tenantID.String())
	req.Header.Set(middleware.UserHeader, a.userID.String())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (a *testAPI) createAccount(code, accountType string) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/accounts", map[string]any{
		"code": code, "name": code, "type": accountType,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[ledgerapp.AccountResponse](a.t, w).Data.ID
}

func (a *testAPI) createInvoice(customerID uuid.UUID, no, amount string, due time.Time) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/invoices", map[string]any{
		"invoice_no":   no,
		"customer_id":  customerID,
		"contract_id":  uuid.New(),
		"invoice_date": due.AddDate(0, 0, -30),
		"due_date":     due,
		"total_amount": amount,
		"currency":     "USD",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[receivableapp.InvoiceResponse](a.t, w).Data.ID
}

func (a *testAPI) createReceipt(customerID uuid.UUID, amount string) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/receipts", map[string]any{
		"customer_id":  customerID,
		"receipt_date": time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		"amount":       amount,
		"currency":     "USD",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[receivableapp.ReceiptResponse](a.t, w).Data.ID
}

func entry(accountID uuid.UUID, debit, credit string) map[string]any {
	return map[string]any{"account_id": accountID, "debit": debit, "credit": credit}
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		api.engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		env := decode[handler.HealthResponse](t, w)
		assert.Equal(t, handler.StatusUp, env.Data.Database)
		assert.Equal(t, handler.StatusDisabled, env.Data.Redis)
	}
}

func TestAPI_RequiresTenant(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode[any](t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeMissingTenant, env.Error.Code)
}

func TestAPI_JournalVoucherLifecycle(t *testing.T) {
	api := newTestAPI(t)
	cash := api.createAccount("1000", "ASSET")
	rent := api.createAccount("4000", "REVENUE")

	w := api.do(http.MethodPost, "/api/v1/journal-vouchers", map[string]any{
		"transaction_date": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"company_id":       uuid.New(),
		"fiscal_year_id":   uuid.New(),
		"currency":         "USD",
		"narration":        "March rent",
		"entries":          []any{entry(cash, "1000.00", "0"), entry(rent, "0", "999.00")},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	voucher := decode[ledgerapp.VoucherResponse](t, w).Data
	assert.Equal(t, "DRAFT", voucher.Status)
	base := "/api/v1/journal-vouchers/" + voucher.ID.String()

	t.Run("unbalanced commit is rejected with details", func(t *testing.T) {
		w := api.do(http.MethodPost, base+"/commit", nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		env := decode[any](t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNBALANCED_ENTRY", env.Error.Code)
		assert.Equal(t, "1.00", env.Error.Details["difference"])
		assert.Equal(t, voucher.ID.String(), env.Error.Details["entity_id"])
	})

	t.Run("fixed draft commits approves and posts", func(t *testing.T) {
		w := api.do(http.MethodPut, base+"/draft", map[string]any{
			"entries": []any{entry(cash, "1000.00", "0"), entry(rent, "0", "1000.00")},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = api.do(http.MethodPost, base+"/commit", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "PENDING", decode[ledgerapp.VoucherResponse](t, w).Data.Status)

		w = api.do(http.MethodPost, base+"/approve", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = api.do(http.MethodPost, base+"/post", nil, middleware.IdempotencyKeyHeader, "post-1")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		posted := decode[ledgerapp.VoucherResponse](t, w).Data
		assert.Equal(t, "POSTED", posted.Status)
		assert.NotEmpty(t, posted.VoucherNo)

		w = api.do(http.MethodPost, base+"/post", nil, middleware.IdempotencyKeyHeader, "post-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeDuplicateRequest, decode[any](t, w).Error.Code)
	})

	t.Run("posted voucher is locked", func(t *testing.T) {
		w := api.do(http.MethodPut, base+"/draft", map[string]any{
			"entries": []any{entry(cash, "5.00", "0"), entry(rent, "0", "5.00")},
		})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Equal(t, "LOCKED_FOR_EDITING", decode[any](t, w).Error.Code)
	})

	t.Run("reversal is audited", func(t *testing.T) {
		w := api.do(http.MethodPost, base+"/reverse", map[string]any{"reason": "wrong tenant"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rev := decode[ledgerapp.ReverseVoucherResponse](t, w).Data
		assert.True(t, rev.Original.IsReversed)
		require.NotNil(t, rev.Reversal.ReversalOfID)
		assert.Equal(t, voucher.ID, *rev.Reversal.ReversalOfID)

		logs, err := api.auditLog.FindByVoucher(t.Context(), api.tenantID, voucher.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})
}

func TestAPI_ValidateEntries(t *testing.T) {
	api := newTestAPI(t)
	cash, rent := uuid.New(), uuid.New()

	w := api.do(http.MethodPost, "/api/v1/journal-vouchers/validate", map[string]any{
		"currency": "USD",
		"entries":  []any{entry(cash, "100.005", "0"), entry(rent, "0", "100.01")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[ledgerapp.BalanceResponse](t, w).Data
	assert.True(t, result.IsBalanced)
	assert.Equal(t, "100.01", result.TotalDebits)
	assert.Equal(t, "0.00", result.Difference)
}

func TestAPI_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	t.Run("bad currency", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/receipts", map[string]any{
			"customer_id":  uuid.New(),
			"receipt_date": time.Now(),
			"amount":       "10",
			"currency":     "XXQ",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.NotEmpty(t, env.Error.Fields)
		assert.Equal(t, "currency", env.Error.Fields[0].Field)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/receipts", map[string]any{
			"customer_id":  uuid.New(),
			"receipt_date": time.Now(),
			"amount":       "0",
			"currency":     "USD",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "amount", decode[any](t, w).Error.Fields[0].Field)
	})

	t.Run("bad path id", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/receipts/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeInvalidID, env.Error.Code)
		assert.Equal(t, "id", env.Error.Details["param"])
	})

	t.Run("unknown receipt", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/receipts/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode[any](t, w).Error.Code)
	})
}

func TestAPI_ReceiptPartialCommit(t *testing.T) {
	api := newTestAPI(t)
	customer := uuid.New()
	invoiceID := api.createInvoice(customer, "INV-001", "1000.00", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	receiptID := api.createReceipt(customer, "1500.00")
	base := "/api/v1/receipts/" + receiptID.String()

	w := api.do(http.MethodPost, base+"/auto-allocate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	alloc := decode[receivableapp.AutoAllocateResponse](t, w).Data
	assert.True(t, alloc.Allocated.Equal(decimal.NewFromInt(1000)))
	assert.True(t, alloc.Remaining.Equal(decimal.NewFromInt(500)))

	w = api.do(http.MethodPost, base+"/commit", nil, middleware.IdempotencyKeyHeader, "commit-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[receivableapp.CommitReceiptResponse](t, w).Data
	assert.False(t, first.Committed)
	require.NotNil(t, first.Warning)
	assert.Equal(t, "PARTIALLY_ALLOCATED", first.Warning.Code)
	assert.True(t, first.Warning.Unallocated.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "DRAFT", first.Receipt.Status)

	// the unconfirmed attempt released the key, so the confirmation may reuse it
	w = api.do(http.MethodPost, base+"/commit", map[string]any{"allow_partial": true},
		middleware.IdempotencyKeyHeader, "commit-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[receivableapp.CommitReceiptResponse](t, w).Data
	assert.True(t, second.Committed)
	assert.Equal(t, "COMMITTED", second.Receipt.Status)

	w = api.do(http.MethodPost, base+"/commit", map[string]any{"allow_partial": true},
		middleware.IdempotencyKeyHeader, "commit-1")
	require.Equal(t, http.StatusConflict, w.Code)
	env := decode[any](t, w)
	assert.Equal(t, dto.ErrCodeDuplicateRequest, env.Error.Code)
	assert.Equal(t, "commit-1", env.Error.Details["idempotency_key"])

	w = api.do(http.MethodGet, "/api/v1/invoices/"+invoiceID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	invoice := decode[receivableapp.InvoiceResponse](t, w).Data
	assert.True(t, invoice.BalanceAmount.IsZero())

	w = api.do(http.MethodGet, "/api/v1/invoices/outstanding?customer_id="+customer.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]receivableapp.OutstandingInvoiceResponse](t, w).Data)
}

func TestAPI_ReceiptOverAllocation(t *testing.T) {
	api := newTestAPI(t)
	customer := uuid.New()
	invoiceID := api.createInvoice(customer, "INV-002", "300.00", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	receiptID := api.createReceipt(customer, "500.00")

	w := api.do(http.MethodPut,
		"/api/v1/receipts/"+receiptID.String()+"/allocations/"+invoiceID.String(),
		map[string]any{"amount": "300.01"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	env := decode[any](t, w)
	assert.Equal(t, "EXCEEDS_INVOICE_BALANCE", env.Error.Code)
	assert.Equal(t, invoiceID.String(), env.Error.Details["entity_id"])
}

func TestAPI_TerminationRefund(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/terminations", map[string]any{
		"contract_id":      uuid.New(),
		"customer_id":      uuid.New(),
		"termination_date": time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		"security_deposit": "1000.00",
		"currency":         "USD",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[terminationapp.TerminationResponse](t, w).Data
	base := "/api/v1/terminations/" + created.ID.String()

	w = api.do(http.MethodPost, base+"/deductions", map[string]any{"description": "Repainting", "amount": "300.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	withDeduction := decode[terminationapp.TerminationResponse](t, w).Data
	assert.True(t, withDeduction.RefundAmount.Equal(decimal.NewFromInt(700)))

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, base+"/submit", nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, base+"/approve", nil).Code)

	w = api.do(http.MethodPost, base+"/refund", map[string]any{"reference": "BANK-42"},
		middleware.IdempotencyKeyHeader, "refund-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decode[terminationapp.TerminationResponse](t, w).Data
	assert.Equal(t, "COMPLETED", done.Status)
	assert.True(t, done.RefundProcessed)

	w = api.do(http.MethodPost, base+"/refund", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_PROCESSED", decode[any](t, w).Error.Code)
}

func TestAPI_SettlePreview(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/terminations/settle", map[string]any{
		"currency":         "USD",
		"security_deposit": "500.00",
		"deductions":       []any{map[string]any{"description": "Cleaning", "amount": "650.00"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decode[terminationapp.SettlementResponse](t, w).Data
	assert.True(t, s.RefundAmount.IsZero())
	assert.True(t, s.CreditNoteAmount.Equal(decimal.NewFromInt(150)))
}

func TestAPI_ListFiltersByID(t *testing.T) {
	api := newTestAPI(t)
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	customer, other := uuid.New(), uuid.New()
	invoiceID := api.createInvoice(customer, "INV-101", "100.00", due)
	api.createInvoice(customer, "INV-102", "200.00", due.AddDate(0, 1, 0))
	api.createInvoice(other, "INV-201", "300.00", due)

	w := api.do(http.MethodGet, "/api/v1/invoices/"+invoiceID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	contractID := decode[receivableapp.InvoiceResponse](t, w).Data.ContractID

	t.Run("outstanding by customer", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/invoices/outstanding?customer_id="+customer.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, decode[[]receivableapp.OutstandingInvoiceResponse](t, w).Data, 2)
	})

	t.Run("outstanding requires a valid customer", func(t *testing.T) {
		for _, path := range []string{"/api/v1/invoices/outstanding", "/api/v1/invoices/outstanding?customer_id=abc"} {
			w := api.do(http.MethodGet, path, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, path)
			env := decode[any](t, w)
			assert.Equal(t, dto.ErrCodeInvalidID, env.Error.Code)
			assert.Equal(t, "customer_id", env.Error.Details["query"])
		}
	})

	t.Run("invoices by customer", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/invoices?customer_id="+other.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[[]receivableapp.InvoiceResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, "INV-201", env.Data[0].InvoiceNo)
		assert.Equal(t, int64(1), env.Meta.Total)
	})

	t.Run("invoices by contract", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/invoices?contract_id="+contractID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[[]receivableapp.InvoiceResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, invoiceID, env.Data[0].ID)
	})

	t.Run("malformed filter is rejected", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/invoices?contract_id=42", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidID, decode[any](t, w).Error.Code)
	})

	t.Run("receipts by customer", func(t *testing.T) {
		api.createReceipt(customer, "50.00")
		api.createReceipt(other, "60.00")

		w := api.do(http.MethodGet, "/api/v1/receipts?customer_id="+customer.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[[]receivableapp.ReceiptResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, customer, env.Data[0].CustomerID)
	})

	t.Run("terminations by contract and customer", func(t *testing.T) {
		contract := uuid.New()
		for _, c := range []uuid.UUID{contract, uuid.New()} {
			w := api.do(http.MethodPost, "/api/v1/terminations", map[string]any{
				"contract_id":      c,
				"customer_id":      customer,
				"termination_date": time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
				"security_deposit": "500.00",
				"currency":         "USD",
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := api.do(http.MethodGet, "/api/v1/terminations?customer_id="+customer.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, decode[[]terminationapp.TerminationResponse](t, w).Data, 2)

		w = api.do(http.MethodGet,
			"/api/v1/terminations?customer_id="+customer.String()+"&contract_id="+contract.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[[]terminationapp.TerminationResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, contract, env.Data[0].ContractID)
	})

	t.Run("vouchers by company", func(t *testing.T) {
		cash := api.createAccount("1000", "ASSET")
		rent := api.createAccount("4000", "REVENUE")
		company := uuid.New()
		for _, c := range []uuid.UUID{company, uuid.New()} {
			w := api.do(http.MethodPost, "/api/v1/journal-vouchers", map[string]any{
				"transaction_date": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				"company_id":       c,
				"fiscal_year_id":   uuid.New(),
				"currency":         "USD",
				"entries":          []any{entry(cash, "10.00", "0"), entry(rent, "0", "10.00")},
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := api.do(http.MethodGet, "/api/v1/journal-vouchers?company_id="+company.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[[]ledgerapp.VoucherListItemResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, "10.00", env.Data[0].TotalDebits)
	})
}

func TestAPI_ResetRequiresUnlockPermission(t *testing.T) {
	api := newTestAPI(t)
	cash := api.createAccount("1000", "ASSET")
	rent := api.createAccount("4000", "REVENUE")

	w := api.do(http.MethodPost, "/api/v1/journal-vouchers", map[string]any{
		"transaction_date": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"company_id":       uuid.New(),
		"fiscal_year_id":   uuid.New(),
		"currency":         "USD",
		"entries":          []any{entry(cash, "250.00", "0"), entry(rent, "0", "250.00")},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	voucherID := decode[ledgerapp.VoucherResponse](t, w).Data.ID
	base := "/api/v1/journal-vouchers/" + voucherID.String()
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, base+"/commit", nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, base+"/approve", nil).Code)
	reason := map[string]any{"reason": "wrong cost center"}

	t.Run("without permissions", func(t *testing.T) {
		w := api.do(http.MethodPost, base+"/reset", reason)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		assert.Equal(t, dto.ErrCodeForbidden, decode[any](t, w).Error.Code)
	})

	t.Run("with unrelated permissions", func(t *testing.T) {
		w := api.do(http.MethodPost, base+"/reset", reason,
			middleware.PermissionsHeader, "journal_voucher:read, journal_voucher:approve")
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	logs, err := api.auditLog.FindByVoucher(t.Context(), api.tenantID, voucherID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	t.Run("with unlock permission", func(t *testing.T) {
		w := api.do(http.MethodPost, base+"/reset", reason,
			middleware.PermissionsHeader, "journal_voucher:read,"+middleware.PermissionVoucherUnlock)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "DRAFT", decode[ledgerapp.VoucherResponse](t, w).Data.Status)

		logs, err := api.auditLog.FindByVoucher(t.Context(), api.tenantID, voucherID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "UNLOCK", logs[0].Action)
		assert.Equal(t, api.userID, logs[0].ActorID)
	})
}
