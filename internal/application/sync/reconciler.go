package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/syncengine/internal/domain/catalog"
	"github.com/storefront/syncengine/internal/domain/shared"
	domainsync "github.com/storefront/syncengine/internal/domain/sync"
	"github.com/storefront/syncengine/internal/infrastructure/scheduler"
)

// Phase names one stage of a reconciliation pass
type Phase string

const (
	PhaseInit       Phase = "INIT"
	PhaseCategories Phase = "CATEGORIES"
	PhaseProducts   Phase = "PRODUCTS"
	PhaseRelations  Phase = "RELATIONS"
	PhaseSweep      Phase = "SWEEP"
	PhaseDone       Phase = "DONE"
	PhaseFailed     Phase = "FAILED"
)

// Progress slices for the overall 0..100 range, per phase
const (
	progressCategoriesStart = 5
	progressCategoriesEnd   = 25
	progressProductsEnd     = 70
	progressRelationsEnd    = 80
	progressSweepEnd        = 95
)

// Reconciler drives one full catalog synchronization pass: it downloads the
// remote feeds, upserts categories and products keyed by external id,
// resolves the category tree, merges product relations, and finally sweeps
// everything the feed no longer mentions.
type Reconciler struct {
	gateway    domainsync.Gateway
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	registry   *AttributeRegistry
	publisher  shared.EventPublisher
	settings   domainsync.Settings
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewReconciler creates a reconciler bound to one sync source
func NewReconciler(
	gateway domainsync.Gateway,
	categories catalog.CategoryRepository,
	products catalog.ProductRepository,
	registry *AttributeRegistry,
	publisher shared.EventPublisher,
	settings domainsync.Settings,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		gateway:    gateway,
		categories: categories,
		products:   products,
		registry:   registry,
		publisher:  publisher,
		settings:   settings,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Run executes one full pass. The progress callback receives monotonic
// 0..100 updates; pass nil when no reporting is needed.
func (r *Reconciler) Run(ctx context.Context, progress scheduler.ProgressFunc) (*domainsync.PassStats, error) {
	if progress == nil {
		progress = func(int) {}
	}

	passID := uuid.New()
	started := time.Now()
	stats := &domainsync.PassStats{}
	seenCategories := domainsync.NewSeenSet()
	seenProducts := domainsync.NewSeenSet()

	r.logger.Info("Catalog pass started",
		zap.String("pass_id", passID.String()),
		zap.String("source", r.settings.Source),
	)
	progress(progressCategoriesStart)

	if err := r.runCategories(ctx, seenCategories, stats, progress); err != nil {
		return stats, r.fail(PhaseCategories, err)
	}
	progress(progressCategoriesEnd)

	if err := r.runProducts(ctx, seenProducts, stats, progress); err != nil {
		return stats, r.fail(PhaseProducts, err)
	}
	progress(progressProductsEnd)

	if err := r.runRelations(ctx, stats); err != nil {
		return stats, r.fail(PhaseRelations, err)
	}
	progress(progressRelationsEnd)

	if err := r.runSweep(ctx, seenCategories, seenProducts, stats); err != nil {
		return stats, r.fail(PhaseSweep, err)
	}
	progress(progressSweepEnd)

	if err := r.publisher.Publish(ctx, domainsync.NewCatalogImportedEvent(passID, r.settings.Source, *stats)); err != nil {
		r.logger.Warn("Failed to publish pass completion event", zap.Error(err))
	}

	progress(100)
	r.logger.Info("Catalog pass complete",
		zap.String("pass_id", passID.String()),
		zap.Duration("took", time.Since(started)),
		zap.Int("categories_seen", stats.CategoriesSeen),
		zap.Int("products_seen", stats.ProductsSeen),
		zap.Int("products_skipped", stats.ProductsSkipped),
		zap.Int("categories_swept", stats.CategoriesSwept),
		zap.Int("products_swept", stats.ProductsSwept),
	)
	return stats, nil
}

func (r *Reconciler) fail(phase Phase, err error) error {
	r.logger.Error("Catalog pass failed",
		zap.String("phase", string(phase)),
		zap.Error(err),
	)
	return fmt.Errorf("%s phase: %w", phase, err)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (r *Reconciler) runCategories(ctx context.Context, seen *domainsync.SeenSet, stats *domainsync.PassStats, progress scheduler.ProgressFunc) error {
	snapshots, err := r.gateway.Categories(ctx)
	if err != nil {
		return fmt.Errorf("category feed: %w", err)
	}

	// First pass: upsert every row keyed by external id
	local := make(map[string]*catalog.Category, len(snapshots))
	valid := make([]domainsync.CategorySnapshot, 0, len(snapshots))
	for n, snapshot := range snapshots {
		if err := r.validate.Struct(snapshot); err != nil {
			r.logger.Warn("Skipping malformed category row",
				zap.String("external_id", snapshot.ExternalID),
				zap.Error(err),
			)
			continue
		}
		category, err := r.upsertCategory(ctx, snapshot, stats)
		if err != nil {
			return err
		}
		if category == nil {
			continue
		}
		local[snapshot.ExternalID] = category
		valid = append(valid, snapshot)
		seen.Mark(snapshot.ExternalID)
		stats.CategoriesSeen++

		if r.settings.DownloadImages && snapshot.PhotoRef != "" {
			stats.Images = append(stats.Images, domainsync.ImageRequest{
				PhotoRef:   snapshot.PhotoRef,
				EntityType: catalog.ImageOwnerCategory,
				EntityID:   category.ID,
			})
		}
		progress(scheduler.Rescale(progressCategoriesStart, progressCategoriesEnd, n+1, 2*len(snapshots)))
	}

	// Second pass: resolve parent pointers now that every row has a local row
	for n, snapshot := range valid {
		if err := r.linkParent(ctx, snapshot, local); err != nil {
			return err
		}
		progress(scheduler.Rescale(progressCategoriesStart, progressCategoriesEnd, len(snapshots)+n+1, 2*len(snapshots)))
	}

	r.logger.Info("Category phase complete",
		zap.Int("rows", len(snapshots)),
		zap.Int("created", stats.CategoriesCreated),
		zap.Int("updated", stats.CategoriesUpdated),
	)
	return nil
}

func (r *Reconciler) upsertCategory(ctx context.Context, snapshot domainsync.CategorySnapshot, stats *domainsync.PassStats) (*catalog.Category, error) {
	address := snapshot.Address
	if address == "" {
		address = domainsync.Slugify(snapshot.Title)
	}

	existing, err := r.categories.FindByExternalID(ctx, r.settings.Source, snapshot.ExternalID)
	switch {
	case err == nil:
		if err := existing.Update(snapshot.Title, snapshot.Description, snapshot.SortOrder,
			snapshot.Field1, snapshot.Field2, snapshot.Field3); err != nil {
			return nil, err
		}
		if err := r.categories.Update(ctx, existing); err != nil {
			return nil, err
		}
		r.publishEvents(ctx, existing)
		r.logCategoryOutcome(snapshot.ExternalID, domainsync.OutcomeUpdated)
		stats.CategoriesUpdated++
		return existing, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	// The external id is new; a same-titled category registered under a
	// different id means the remote renumbered it. Adopt the new id instead
	// of creating a duplicate.
	byTitle, err := r.categories.FindByTitle(ctx, r.settings.Source, snapshot.Title)
	switch {
	case err == nil:
		if err := byTitle.AdoptExternalID(snapshot.ExternalID); err != nil {
			return nil, err
		}
		if err := byTitle.Update(snapshot.Title, snapshot.Description, snapshot.SortOrder,
			snapshot.Field1, snapshot.Field2, snapshot.Field3); err != nil {
			return nil, err
		}
		if err := r.categories.Update(ctx, byTitle); err != nil {
			return nil, err
		}
		r.publishEvents(ctx, byTitle)
		r.logCategoryOutcome(snapshot.ExternalID, domainsync.OutcomeConflictTitle)
		stats.CategoriesUpdated++
		return byTitle, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	// Only the address collides: another entity owns the slug. Skip the row
	// rather than steal the address.
	if _, err := r.categories.FindByAddress(ctx, address); err == nil {
		r.logCategoryOutcome(snapshot.ExternalID, domainsync.OutcomeConflictAddress)
		return nil, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	category, err := catalog.NewCategory(r.settings.Source, snapshot.ExternalID, snapshot.Title, address)
	if err != nil {
		return nil, err
	}
	if err := category.Update(snapshot.Title, snapshot.Description, snapshot.SortOrder,
		snapshot.Field1, snapshot.Field2, snapshot.Field3); err != nil {
		return nil, err
	}
	if err := r.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	r.publishEvents(ctx, category)
	r.logCategoryOutcome(snapshot.ExternalID, domainsync.OutcomeCreated)
	stats.CategoriesCreated++
	return category, nil
}

func (r *Reconciler) logCategoryOutcome(externalID string, outcome domainsync.UpsertOutcome) {
	r.logger.Debug("Category upsert",
		zap.String("external_id", externalID),
		zap.Stringer("outcome", outcome),
	)
}

func (r *Reconciler) linkParent(ctx context.Context, snapshot domainsync.CategorySnapshot, local map[string]*catalog.Category) error {
	category := local[snapshot.ExternalID]
	if category == nil {
		return nil
	}

	parentExt := snapshot.ParentExternalID
	if parentExt == "" || parentExt == "0" {
		category.AttachToRoot()
		return r.categories.Update(ctx, category)
	}

	parent := local[parentExt]
	if parent == nil {
		// Not in this feed; it may exist from an earlier pass
		found, err := r.categories.FindByExternalID(ctx, r.settings.Source, parentExt)
		switch {
		case err == nil:
			parent = found
		case errors.Is(err, shared.ErrNotFound):
			return r.handleOrphan(ctx, category, parentExt)
		default:
			return err
		}
	}

	category.SetParent(&parent.ID)
	return r.categories.Update(ctx, category)
}

func (r *Reconciler) handleOrphan(ctx context.Context, category *catalog.Category, parentExt string) error {
	switch r.settings.Orphan {
	case domainsync.OrphanRejectPass:
		return fmt.Errorf("%w: category %s references parent %s",
			shared.ErrOrphanParent, category.ExternalID, parentExt)
	case domainsync.OrphanMarkInvalid:
		r.logger.Warn("Category parent unresolvable, flagging invalid",
			zap.String("external_id", category.ExternalID),
			zap.String("parent_external_id", parentExt),
		)
		category.MarkInvalid()
	default:
		r.logger.Warn("Category parent unresolvable, attaching to root",
			zap.String("external_id", category.ExternalID),
			zap.String("parent_external_id", parentExt),
		)
		category.AttachToRoot()
	}
	return r.categories.Update(ctx, category)
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func (r *Reconciler) runProducts(ctx context.Context, seen *domainsync.SeenSet, stats *domainsync.PassStats, progress scheduler.ProgressFunc) error {
	count, err := r.gateway.ItemCount(ctx)
	if err != nil {
		return fmt.Errorf("item count: %w", err)
	}
	if count <= 0 {
		r.logger.Info("Item feed is empty")
		return nil
	}

	pageSize := r.settings.PageSizeOrDefault()
	for offset := 0; offset <= count; offset += pageSize {
		if offset > 0 {
			if err := sleepCtx(ctx, r.settings.PageDelay); err != nil {
				return err
			}
		}

		page, err := r.gateway.Items(ctx, offset, pageSize)
		if err != nil {
			return fmt.Errorf("item page at offset %d: %w", offset, err)
		}
		for _, snapshot := range page {
			if err := r.validate.Struct(snapshot); err != nil {
				r.logger.Warn("Skipping malformed item row",
					zap.String("external_id", snapshot.ExternalID),
					zap.Error(err),
				)
				stats.ProductsSkipped++
				continue
			}
			if err := r.upsertProduct(ctx, snapshot, seen, stats); err != nil {
				return err
			}
		}
		progress(scheduler.Rescale(progressCategoriesEnd, progressProductsEnd, offset+pageSize, count+pageSize))
	}

	r.logger.Info("Product phase complete",
		zap.Int("count", count),
		zap.Int("created", stats.ProductsCreated),
		zap.Int("updated", stats.ProductsUpdated),
		zap.Int("skipped", stats.ProductsSkipped),
	)
	return nil
}

func (r *Reconciler) upsertProduct(ctx context.Context, snapshot domainsync.ProductSnapshot, seen *domainsync.SeenSet, stats *domainsync.PassStats) error {
	category, err := r.categories.FindByExternalID(ctx, r.settings.Source, snapshot.CategoryExternalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Warn("Skipping item with unknown category",
				zap.String("external_id", snapshot.ExternalID),
				zap.String("category_external_id", snapshot.CategoryExternalID),
			)
			stats.ProductsSkipped++
			return nil
		}
		return err
	}

	fields := productFields(snapshot)
	address := r.productAddress(snapshot, category)

	attributes, err := r.registry.ProductAttributes(ctx, snapshot)
	if err != nil {
		return err
	}

	product, outcome, err := r.resolveProduct(ctx, snapshot, address, category.ID)
	if err != nil {
		return err
	}

	switch outcome {
	case domainsync.OutcomeConflictAddress:
		r.logger.Warn("Skipping item with conflicting address",
			zap.String("external_id", snapshot.ExternalID),
			zap.String("address", address),
		)
		stats.ProductsSkipped++
		return nil

	case domainsync.OutcomeCreated:
		if err := product.Update(category.ID, fields); err != nil {
			return err
		}
		if len(attributes) > 0 {
			if err := product.SetAttributeValues(attributes); err != nil {
				return err
			}
		}
		if err := r.products.Create(ctx, product); err != nil {
			return err
		}
		stats.ProductsCreated++

	default:
		if err := product.Update(category.ID, fields); err != nil {
			return err
		}
		if r.settings.GenerateAddress && product.Address != address {
			if _, err := r.products.FindByAddress(ctx, address); errors.Is(err, shared.ErrNotFound) {
				product.SetAddress(address)
			}
		}
		if len(attributes) > 0 {
			if err := product.SetAttributeValues(attributes); err != nil {
				return err
			}
		}
		if err := r.products.Update(ctx, product); err != nil {
			return err
		}
		stats.ProductsUpdated++
	}

	r.publishEvents(ctx, product)
	r.logger.Debug("Product upsert",
		zap.String("external_id", snapshot.ExternalID),
		zap.Stringer("outcome", outcome),
	)

	seen.Mark(snapshot.ExternalID)
	stats.ProductsSeen++

	if r.settings.DownloadImages && snapshot.PhotoRef != "" {
		stats.Images = append(stats.Images, domainsync.ImageRequest{
			PhotoRef:   snapshot.PhotoRef,
			EntityType: catalog.ImageOwnerProduct,
			EntityID:   product.ID,
		})
	}
	return nil
}

// resolveProduct locates the entity a snapshot row maps to, applying the
// collision fallback, and reports how it was found. For OutcomeCreated the
// returned product is new and not yet persisted.
func (r *Reconciler) resolveProduct(ctx context.Context, snapshot domainsync.ProductSnapshot, address string, categoryID uuid.UUID) (*catalog.Product, domainsync.UpsertOutcome, error) {
	existing, err := r.products.FindByExternalID(ctx, r.settings.Source, snapshot.ExternalID)
	switch {
	case err == nil:
		return existing, domainsync.OutcomeUpdated, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, 0, err
	}

	byTitle, err := r.products.FindByTitle(ctx, r.settings.Source, snapshot.Title)
	switch {
	case err == nil:
		if err := byTitle.AdoptExternalID(snapshot.ExternalID); err != nil {
			return nil, 0, err
		}
		return byTitle, domainsync.OutcomeConflictTitle, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, 0, err
	}

	if _, err := r.products.FindByAddress(ctx, address); err == nil {
		return nil, domainsync.OutcomeConflictAddress, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, 0, err
	}

	product, err := catalog.NewProduct(r.settings.Source, snapshot.ExternalID, snapshot.Title, address, categoryID)
	if err != nil {
		return nil, 0, err
	}
	return product, domainsync.OutcomeCreated, nil
}

func (r *Reconciler) productAddress(snapshot domainsync.ProductSnapshot, category *catalog.Category) string {
	if r.settings.GenerateAddress {
		return domainsync.ChildAddress(category.Address, snapshot.Title)
	}
	if snapshot.Address != "" {
		return snapshot.Address
	}
	return domainsync.Slugify(snapshot.Title)
}

func productFields(snapshot domainsync.ProductSnapshot) catalog.ProductFields {
	return catalog.ProductFields{
		Title:        snapshot.Title,
		SortOrder:    snapshot.SortOrder,
		Description:  snapshot.Description,
		Extra:        snapshot.Extra,
		VendorCode:   snapshot.VendorCode,
		Barcode:      snapshot.Barcode,
		PriceFirst:   snapshot.PriceFirst,
		Price:        snapshot.Price,
		Wholesale:    snapshot.PriceWholesale,
		Stock:        snapshot.Stock,
		Weight:       snapshot.Weight,
		Unit:         snapshot.Unit,
		Country:      snapshot.Country,
		Manufacturer: snapshot.Manufacturer,
		Tags:         snapshot.Tags,
		Field1:       snapshot.Field1,
		Field2:       snapshot.Field2,
		Field3:       snapshot.Field3,
		Field4:       snapshot.Field4,
		Field5:       snapshot.Field5,
		EditedAt:     snapshot.ChangedAt,
	}
}

// ---------------------------------------------------------------------------
// Relations
// ---------------------------------------------------------------------------

func (r *Reconciler) runRelations(ctx context.Context, stats *domainsync.PassStats) error {
	pageSize := r.settings.PageSizeOrDefault()

	// Collect the whole feed first so each product is written exactly once
	merged := make(map[string]map[string]decimal.Decimal)
	for offset := 0; ; offset += pageSize {
		rows, err := r.gateway.Relations(ctx, offset, pageSize)
		if err != nil {
			return fmt.Errorf("relation page at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if row.ProductExternalID == "" || row.RelatedExternalID == "" {
				continue
			}
			if merged[row.ProductExternalID] == nil {
				merged[row.ProductExternalID] = make(map[string]decimal.Decimal)
			}
			merged[row.ProductExternalID][row.RelatedExternalID] = row.Quantity
		}
	}

	for productExt, related := range merged {
		product, err := r.products.FindByExternalID(ctx, r.settings.Source, productExt)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				r.logger.Warn("Relation references unknown product",
					zap.String("external_id", productExt),
				)
				continue
			}
			return err
		}

		resolved := make(map[uuid.UUID]decimal.Decimal, len(related))
		for relatedExt, quantity := range related {
			target, err := r.products.FindByExternalID(ctx, r.settings.Source, relatedExt)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return err
			}
			resolved[target.ID] = quantity
		}
		if len(resolved) == 0 {
			continue
		}

		if err := product.SetRelations(resolved); err != nil {
			return err
		}
		if err := r.products.Update(ctx, product); err != nil {
			return err
		}
		stats.RelationsApplied++
	}

	r.logger.Info("Relation phase complete", zap.Int("products", stats.RelationsApplied))
	return nil
}

// ---------------------------------------------------------------------------
// Sweep
// ---------------------------------------------------------------------------

func (r *Reconciler) runSweep(ctx context.Context, seenCategories, seenProducts *domainsync.SeenSet, stats *domainsync.PassStats) error {
	workProducts, err := r.products.FindBySourceAndStatus(ctx, r.settings.Source, catalog.StatusWork)
	if err != nil {
		return err
	}
	for i := range workProducts {
		product := &workProducts[i]
		if seenProducts.Seen(product.ExternalID) {
			continue
		}
		product.MarkDeleted()
		if err := r.products.Update(ctx, product); err != nil {
			return err
		}
		r.publishEvents(ctx, product)
		stats.ProductsSwept++
	}

	workCategories, err := r.categories.FindBySourceAndStatus(ctx, r.settings.Source, catalog.StatusWork)
	if err != nil {
		return err
	}
	// The snapshot goes stale as cascades run: a child swept through its
	// parent must not be swept again through its stale WORK copy
	swept := make(map[uuid.UUID]struct{})
	for i := range workCategories {
		category := &workCategories[i]
		if seenCategories.Seen(category.ExternalID) {
			continue
		}
		if _, done := swept[category.ID]; done {
			continue
		}
		if err := r.sweepCategory(ctx, category, stats, swept); err != nil {
			return err
		}
	}

	// Products still attached to a swept subtree go with it
	if len(swept) > 0 {
		sweptIDs := make([]uuid.UUID, 0, len(swept))
		for id := range swept {
			sweptIDs = append(sweptIDs, id)
		}
		orphaned, err := r.products.FindByCategoryIDs(ctx, sweptIDs)
		if err != nil {
			return err
		}
		for i := range orphaned {
			product := &orphaned[i]
			if product.IsDeleted() {
				continue
			}
			product.MarkDeleted()
			if err := r.products.Update(ctx, product); err != nil {
				return err
			}
			r.publishEvents(ctx, product)
			stats.ProductsSwept++
		}
	}

	r.logger.Info("Sweep phase complete",
		zap.Int("categories_swept", stats.CategoriesSwept),
		zap.Int("products_swept", stats.ProductsSwept),
	)
	return nil
}

// sweepCategory soft-deletes a category and descends into its children
func (r *Reconciler) sweepCategory(ctx context.Context, category *catalog.Category, stats *domainsync.PassStats, swept map[uuid.UUID]struct{}) error {
	if _, done := swept[category.ID]; done {
		return nil
	}
	if category.IsDeleted() {
		return nil
	}
	category.MarkDeleted()
	if err := r.categories.Update(ctx, category); err != nil {
		return err
	}
	r.publishEvents(ctx, category)
	stats.CategoriesSwept++
	swept[category.ID] = struct{}{}

	children, err := r.categories.FindChildren(ctx, category.ID)
	if err != nil {
		return err
	}
	for i := range children {
		if err := r.sweepCategory(ctx, &children[i], stats, swept); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Reconciler) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, events...); err != nil {
		r.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
