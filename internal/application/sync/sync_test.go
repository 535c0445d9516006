package sync

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/persistence"
)

const testSource = "trademaster"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Attribute{},
		&catalog.Order{},
		&catalog.Image{},
	))
	return db
}

// fakePublisher records every published event
type fakePublisher struct {
	events []shared.DomainEvent
}

func (p *fakePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *fakePublisher) typesSeen() map[string]int {
	seen := make(map[string]int)
	for _, e := range p.events {
		seen[e.EventType()]++
	}
	return seen
}

// submission captures one SubmitOrder call
type submission struct {
	endpoint string
	params   map[string]string
}

// fakeGateway serves canned feed data and records what was asked of it
type fakeGateway struct {
	categories []domainsync.CategorySnapshot
	items      []domainsync.ProductSnapshot
	relations  []domainsync.RelationRow

	itemOffsets     []int
	relationOffsets []int

	submissions []submission
	receipt     domainsync.OrderReceipt
	submitErr   error

	uploads   [][]byte
	uploadErr error

	fileHost string
}

var _ domainsync.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) Categories(ctx context.Context) ([]domainsync.CategorySnapshot, error) {
	return g.categories, nil
}

func (g *fakeGateway) ItemCount(ctx context.Context) (int, error) {
	return len(g.items), nil
}

func (g *fakeGateway) Items(ctx context.Context, offset, limit int) ([]domainsync.ProductSnapshot, error) {
	g.itemOffsets = append(g.itemOffsets, offset)
	if offset >= len(g.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(g.items) {
		end = len(g.items)
	}
	return g.items[offset:end], nil
}

func (g *fakeGateway) Relations(ctx context.Context, offset, limit int) ([]domainsync.RelationRow, error) {
	g.relationOffsets = append(g.relationOffsets, offset)
	if offset >= len(g.relations) {
		return nil, nil
	}
	end := offset + limit
	if end > len(g.relations) {
		end = len(g.relations)
	}
	return g.relations[offset:end], nil
}

func (g *fakeGateway) SubmitOrder(ctx context.Context, endpoint string, params map[string]string) (domainsync.OrderReceipt, error) {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	g.submissions = append(g.submissions, submission{endpoint: endpoint, params: copied})
	if g.submitErr != nil {
		return domainsync.OrderReceipt{}, g.submitErr
	}
	return g.receipt, nil
}

func (g *fakeGateway) UploadItems(ctx context.Context, payload []byte) error {
	g.uploads = append(g.uploads, payload)
	return g.uploadErr
}

func (g *fakeGateway) FilePath(name string) string {
	return g.fileHost + "/" + url.PathEscape(name)
}

// testEnv wires a reconciler over sqlite-backed repositories
type testEnv struct {
	gateway    *fakeGateway
	publisher  *fakePublisher
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	attributes catalog.AttributeRepository
	orders     catalog.OrderRepository
	images     catalog.ImageRepository
	settings   domainsync.Settings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	return &testEnv{
		gateway:    &fakeGateway{},
		publisher:  &fakePublisher{},
		categories: persistence.NewGormCategoryRepository(db),
		products:   persistence.NewGormProductRepository(db),
		attributes: persistence.NewGormAttributeRepository(db),
		orders:     persistence.NewGormOrderRepository(db),
		images:     persistence.NewGormImageRepository(db),
		settings: domainsync.Settings{
			Source:   testSource,
			Storage:  "1",
			PageSize: 100,
			Orphan:   domainsync.OrphanAttachRoot,
			Pricing:  domainsync.PricingRetail,
		},
	}
}

func (env *testEnv) reconciler(t *testing.T) *Reconciler {
	t.Helper()
	return NewReconciler(
		env.gateway,
		env.categories,
		env.products,
		NewAttributeRegistry(env.attributes),
		env.publisher,
		env.settings,
		zap.NewNop(),
	)
}

func (env *testEnv) exporter(t *testing.T) *OrderExporter {
	t.Helper()
	return NewOrderExporter(
		env.gateway,
		env.orders,
		env.products,
		env.publisher,
		env.settings,
		zap.NewNop(),
	)
}
