package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	"github.com/storefront/syncengine/internal/infrastructure/persistence"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEnqueuer struct {
	jobs []*scheduler.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(jobType scheduler.JobType, params map[string]string) (*scheduler.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	job := scheduler.NewJob(jobType, params, 0)
	f.jobs = append(f.jobs, job)
	return job, nil
}

type fakeJobLookup struct {
	jobs map[uuid.UUID]*scheduler.Job
}

func (f *fakeJobLookup) GetJob(id uuid.UUID) (*scheduler.Job, bool) {
	job, ok := f.jobs[id]
	return job, ok
}

func (f *fakeJobLookup) GetJobHistory(limit int) []*scheduler.Job {
	out := make([]*scheduler.Job, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, job)
		if len(out) == limit {
			break
		}
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
}

func newTestOrderRepo(t *testing.T) catalog.OrderRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Order{}))

	return persistence.NewGormOrderRepository(db)
}

func performRequest(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func newSyncEngine(enqueuer *fakeEnqueuer, lookup *fakeJobLookup) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api")
	NewSyncHandler(enqueuer, lookup).RegisterRoutes(api)
	return engine
}

func TestSyncHandlerTriggerCatalogDownload(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	engine := newSyncEngine(enqueuer, &fakeJobLookup{})

	recorder := performRequest(engine, http.MethodPost, "/api/sync/catalog", nil)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, scheduler.JobTypeCatalogDownload, enqueuer.jobs[0].Type)

	data := decodeData(t, recorder)
	assert.Equal(t, enqueuer.jobs[0].ID.String(), data["id"])
	assert.Equal(t, "PENDING", data["status"])
}

func TestSyncHandlerTriggerUploadOnlyUpdated(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	engine := newSyncEngine(enqueuer, &fakeJobLookup{})

	recorder := performRequest(engine, http.MethodPost, "/api/sync/upload?only_updated=1", nil)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, scheduler.JobTypeCatalogUpload, enqueuer.jobs[0].Type)
	assert.Equal(t, "1", enqueuer.jobs[0].Param("only_updated"))
}

func TestSyncHandlerQueueFull(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: scheduler.ErrJobQueueFull}
	engine := newSyncEngine(enqueuer, &fakeJobLookup{})

	recorder := performRequest(engine, http.MethodPost, "/api/sync/catalog", nil)

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

func TestSyncHandlerGetJob(t *testing.T) {
	job := scheduler.NewJob(scheduler.JobTypeCatalogDownload, nil, 0)
	job.Start()
	job.SetProgress(40)

	lookup := &fakeJobLookup{jobs: map[uuid.UUID]*scheduler.Job{job.ID: job}}
	engine := newSyncEngine(&fakeEnqueuer{}, lookup)

	recorder := performRequest(engine, http.MethodGet, "/api/sync/jobs/"+job.ID.String(), nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	data := decodeData(t, recorder)
	assert.Equal(t, "RUNNING", data["status"])
	assert.Equal(t, float64(40), data["progress"])
}

func TestSyncHandlerGetJobNotFound(t *testing.T) {
	engine := newSyncEngine(&fakeEnqueuer{}, &fakeJobLookup{jobs: map[uuid.UUID]*scheduler.Job{}})

	recorder := performRequest(engine, http.MethodGet, "/api/sync/jobs/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSyncHandlerGetJobBadID(t *testing.T) {
	engine := newSyncEngine(&fakeEnqueuer{}, &fakeJobLookup{})

	recorder := performRequest(engine, http.MethodGet, "/api/sync/jobs/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func newOrderEngine(t *testing.T, enqueuer *fakeEnqueuer) (*gin.Engine, catalog.OrderRepository) {
	t.Helper()

	orders := newTestOrderRepo(t)
	engine := gin.New()
	api := engine.Group("/api")
	NewOrderHandler(orders, nopPublisher{}, enqueuer).RegisterRoutes(api)
	return engine, orders
}

func TestOrderHandlerCreateOrder(t *testing.T) {
	engine, orders := newOrderEngine(t, &fakeEnqueuer{})

	productID := uuid.NewString()
	recorder := performRequest(engine, http.MethodPost, "/api/orders", gin.H{
		"type":   "reservation",
		"items":  gin.H{productID: "2"},
		"client": "Ada",
		"phone":  "+1-555-0100",
	})

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	data := decodeData(t, recorder)
	assert.Equal(t, "reservation", data["type"])
	assert.Equal(t, false, data["exported"])

	saved, err := orders.FindByID(context.Background(), uuid.MustParse(data["id"].(string)))
	require.NoError(t, err)
	assert.Equal(t, "Ada", saved.Client)
	assert.Len(t, saved.ItemMap(), 1)
}

func TestOrderHandlerCreateOrderRejectsBadItems(t *testing.T) {
	engine, _ := newOrderEngine(t, &fakeEnqueuer{})

	cases := []gin.H{
		{"items": gin.H{}},
		{"items": gin.H{"not-a-uuid": "1"}},
		{"items": gin.H{uuid.NewString(): "0"}},
		{"items": gin.H{uuid.NewString(): "-3"}},
	}
	for i, body := range cases {
		recorder := performRequest(engine, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, fmt.Sprintf("case %d", i))
	}
}

func TestOrderHandlerGetOrderNotFound(t *testing.T) {
	engine, _ := newOrderEngine(t, &fakeEnqueuer{})

	recorder := performRequest(engine, http.MethodGet, "/api/orders/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func seedOrder(t *testing.T, orders catalog.OrderRepository, orderType catalog.OrderType) *catalog.Order {
	t.Helper()

	order, err := catalog.NewOrder(orderType, map[uuid.UUID]decimal.Decimal{
		uuid.New(): decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	order.ClearDomainEvents()
	require.NoError(t, orders.Create(context.Background(), order))
	return order
}

func TestOrderHandlerExportQueuesJob(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	engine, orders := newOrderEngine(t, enqueuer)
	order := seedOrder(t, orders, catalog.OrderTypeReservation)

	recorder := performRequest(engine, http.MethodPost, "/api/orders/"+order.ID.String()+"/export", gin.H{
		"doc_number": "D-17",
	})

	assert.Equal(t, http.StatusAccepted, recorder.Code, recorder.Body.String())
	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, scheduler.JobTypeOrderExport, enqueuer.jobs[0].Type)
	assert.Equal(t, order.ID.String(), enqueuer.jobs[0].Param("order_id"))
	assert.Equal(t, "D-17", enqueuer.jobs[0].Param("doc_number"))
}

func TestOrderHandlerExportAlreadyExported(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	engine, orders := newOrderEngine(t, enqueuer)
	order := seedOrder(t, orders, catalog.OrderTypeAnonymous)

	require.NoError(t, order.SetExternalID("R-99"))
	order.ClearDomainEvents()
	require.NoError(t, orders.Update(context.Background(), order))

	recorder := performRequest(engine, http.MethodPost, "/api/orders/"+order.ID.String()+"/export", nil)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Empty(t, enqueuer.jobs)
}
