package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	areadomain "github.com/trashmobeco/trashmob/internal/adoptablearea/domain"
	areagendomain "github.com/trashmobeco/trashmob/internal/areagen/domain"
	"github.com/trashmobeco/trashmob/internal/clock"
	"github.com/trashmobeco/trashmob/internal/config"
	"github.com/trashmobeco/trashmob/internal/geo"
	obsmetrics "github.com/trashmobeco/trashmob/internal/observability/metrics"
	partnerdomain "github.com/trashmobeco/trashmob/internal/partner/domain"
)

var batchTestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSearcher struct {
	features []areagendomain.DiscoveredFeature
	err      error

	// block, when set, is closed by the test to release Discover; used to
	// hold a batch mid-run for cancellation.
	block chan struct{}
}

func (f *fakeSearcher) Discover(ctx context.Context, category string, bounds geo.Bounds) ([]areagendomain.DiscoveredFeature, error) {
	if f.block != nil {
		<-f.block
	}
	return f.features, f.err
}

type fakePartnerService struct {
	partners map[snowflake.ID]*partnerdomain.Partner
}

func (f *fakePartnerService) Create(ctx context.Context, req partnerdomain.CreatePartnerRequest) (*partnerdomain.Partner, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePartnerService) Get(ctx context.Context, id snowflake.ID) (*partnerdomain.Partner, error) {
	partner, ok := f.partners[id]
	if !ok {
		return nil, partnerdomain.ErrPartnerNotFound
	}
	return partner, nil
}

func (f *fakePartnerService) List(ctx context.Context) ([]partnerdomain.Partner, error) {
	return nil, nil
}

type fakeAreaService struct {
	refs    []areadomain.AreaRef
	created []*areadomain.AdoptableArea
}

func (f *fakeAreaService) Get(ctx context.Context, id snowflake.ID) (*areadomain.AdoptableArea, error) {
	return nil, areadomain.ErrAreaNotFound
}

func (f *fakeAreaService) ListByPartner(ctx context.Context, partnerID snowflake.ID) ([]areadomain.AdoptableArea, error) {
	return nil, nil
}

func (f *fakeAreaService) RefsByPartner(ctx context.Context, partnerID snowflake.ID) ([]areadomain.AreaRef, error) {
	return f.refs, nil
}

func (f *fakeAreaService) Create(ctx context.Context, area *areadomain.AdoptableArea) error {
	f.created = append(f.created, area)
	return nil
}

type areagenFixture struct {
	orch     *Orchestrator
	svc      *Service
	db       *gorm.DB
	searcher *fakeSearcher
	partners *fakePartnerService
	areas    *fakeAreaService
}

func setupAreagenTest(t *testing.T) *areagenFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&areagendomain.AreaGenerationBatch{}, &areagendomain.StagedAdoptableArea{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	north, south, east, west := 48.0, 47.0, -122.0, -123.0
	fixture := &areagenFixture{
		db:       db,
		searcher: &fakeSearcher{},
		partners: &fakePartnerService{partners: map[snowflake.ID]*partnerdomain.Partner{
			1: {ID: 1, Name: "TrashMob", BoundsNorth: &north, BoundsSouth: &south, BoundsEast: &east, BoundsWest: &west},
			2: {ID: 2, Name: "Boundless"},
		}},
		areas: &fakeAreaService{},
	}

	cfg := config.Config{}
	cfg.Pipeline.DuplicateRadiusMeters = 100
	cfg.Pipeline.ErrorMessageLimit = 4000

	fixture.orch = NewOrchestrator(OrchestratorParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.Fixed(batchTestNow),
		Config:     cfg,
		Searcher:   fixture.searcher,
		PartnerSvc: fixture.partners,
		AreaSvc:    fixture.areas,
	}).(*Orchestrator)
	fixture.svc = NewService(ServiceParam{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.Fixed(batchTestNow),
		PartnerSvc: fixture.partners,
		AreaSvc:    fixture.areas,
	}).(*Service)
	return fixture
}

func (f *areagenFixture) startBatch(t *testing.T, partnerID snowflake.ID) *areagendomain.AreaGenerationBatch {
	t.Helper()
	batch, err := f.svc.StartBatch(context.Background(), areagendomain.StartBatchRequest{
		PartnerID:   partnerID,
		Category:    areagendomain.CategoryPark,
		CreatedByID: 5,
	})
	if err != nil {
		t.Fatalf("start batch: %v", err)
	}
	return batch
}

func (f *areagenFixture) reloadBatch(t *testing.T, id snowflake.ID) areagendomain.AreaGenerationBatch {
	t.Helper()
	var batch areagendomain.AreaGenerationBatch
	if err := f.db.First(&batch, "id = ?", id).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	return batch
}

func polygon() string {
	return `{"type":"Polygon","coordinates":[[[-122.5,47.5],[-122.4,47.5],[-122.4,47.6],[-122.5,47.5]]]}`
}

func TestRunBatchZeroDiscoveryCompletesDirectly(t *testing.T) {
	fixture := setupAreagenTest(t)
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchComplete {
		t.Fatalf("expected complete, got %s", stored.Status)
	}
	if stored.DiscoveredCount != 0 || stored.ProcessedCount != 0 || stored.StagedCount != 0 {
		t.Fatalf("expected zero counters, got %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completed_at set")
	}
}

func TestRunBatchStagesDiscoveredFeatures(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.searcher.features = []areagendomain.DiscoveredFeature{
		{Name: "Lincoln Park", Geometry: polygon(), GeometryType: "Polygon", Latitude: 47.53, Longitude: -122.39, SourceRef: "way/1"},
		{Name: "", Geometry: polygon(), Latitude: 47.54, Longitude: -122.38, SourceRef: "way/2"},
		{Name: "Schmitz Preserve", Geometry: "", Latitude: 47.57, Longitude: -122.40, SourceRef: "node/3"},
	}
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchComplete {
		t.Fatalf("expected complete, got %s", stored.Status)
	}
	if stored.DiscoveredCount != 3 || stored.ProcessedCount != 3 {
		t.Fatalf("expected all features processed, got %+v", stored)
	}
	if stored.StagedCount != 1 || stored.SkippedCount != 2 {
		t.Fatalf("expected 1 staged and 2 skipped, got %+v", stored)
	}

	var staged []areagendomain.StagedAdoptableArea
	if err := fixture.db.Find(&staged, "batch_id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load staged: %v", err)
	}
	if len(staged) != 1 {
		t.Fatalf("expected one staged area, got %d", len(staged))
	}
	area := staged[0]
	if area.Name != "Lincoln Park" || area.AreaType != areagendomain.AreaTypePark {
		t.Fatalf("unexpected staged area: %+v", area)
	}
	if area.Status != areagendomain.StagedPending {
		t.Fatalf("expected pending, got %s", area.Status)
	}
	if area.Confidence != areagendomain.ConfidenceHigh {
		t.Fatalf("expected high confidence for named polygon, got %s", area.Confidence)
	}
}

func TestRunBatchFlagsDuplicatesByName(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.areas.refs = []areadomain.AreaRef{{Name: "Lincoln Park"}}
	fixture.searcher.features = []areagendomain.DiscoveredFeature{
		{Name: "Lincoln Park Trail", Geometry: polygon(), Latitude: 47.53, Longitude: -122.39, SourceRef: "way/1"},
		{Name: "Alki Beach", Geometry: polygon(), Latitude: 47.58, Longitude: -122.41, SourceRef: "way/2"},
	}
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	var staged []areagendomain.StagedAdoptableArea
	if err := fixture.db.Order("source_ref").Find(&staged, "batch_id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load staged: %v", err)
	}
	if len(staged) != 2 {
		t.Fatalf("expected both features staged, got %d", len(staged))
	}
	dup, clean := staged[0], staged[1]
	if !dup.IsDuplicate || dup.DuplicateOfName == nil || *dup.DuplicateOfName != "Lincoln Park" {
		t.Fatalf("expected duplicate flag on %q: %+v", dup.Name, dup)
	}
	if clean.IsDuplicate {
		t.Fatalf("expected %q not flagged: %+v", clean.Name, clean)
	}
}

func TestRunBatchFlagsDuplicatesByProximity(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.areas.refs = []areadomain.AreaRef{{Name: "Pocket Park", Latitude: 47.5300, Longitude: -122.3900}}
	fixture.searcher.features = []areagendomain.DiscoveredFeature{
		// About 40 meters from the stored center.
		{Name: "Corner Green", Geometry: polygon(), Latitude: 47.53036, Longitude: -122.39, SourceRef: "way/1"},
	}
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	var staged areagendomain.StagedAdoptableArea
	if err := fixture.db.First(&staged, "batch_id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load staged: %v", err)
	}
	if !staged.IsDuplicate || staged.DuplicateOfName == nil || *staged.DuplicateOfName != "Pocket Park" {
		t.Fatalf("expected proximity duplicate, got %+v", staged)
	}
}

func TestRunBatchDiscoveryFailureRecordsError(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.searcher.features = nil
	fixture.searcher.err = errors.New(strings.Repeat("upstream timeout ", 300))
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.ErrorMessage == nil {
		t.Fatal("expected error message recorded")
	}
	if len(*stored.ErrorMessage) > 4000 {
		t.Fatalf("expected error message truncated to 4000, got %d", len(*stored.ErrorMessage))
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completed_at set on failure")
	}
}

func TestRunBatchMidLoopFailureKeepsEarlierStaged(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.searcher.features = []areagendomain.DiscoveredFeature{
		{Name: "North Shore Park", Geometry: polygon(), GeometryType: "Polygon", Latitude: 47.52, Longitude: -122.38, SourceRef: "way/1"},
		{Name: "Broken Pier", Geometry: polygon(), GeometryType: "Polygon", Latitude: 47.55, Longitude: -122.37, SourceRef: "way/2"},
	}
	// A trigger stands in for a storage fault on the second insert.
	if err := fixture.db.Exec(`CREATE TRIGGER reject_broken_pier
		BEFORE INSERT ON staged_adoptable_areas
		WHEN NEW.name = 'Broken Pier'
		BEGIN SELECT RAISE(ABORT, 'stage write rejected'); END`).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	batch := fixture.startBatch(t, 1)

	fixture.orch.RunBatch(context.Background(), batch.ID)

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.ErrorMessage == nil || !strings.Contains(*stored.ErrorMessage, "Broken Pier") {
		t.Fatalf("expected staging error recorded, got %v", stored.ErrorMessage)
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completed_at set on failure")
	}
	if stored.ProcessedCount != 2 || stored.StagedCount != 1 {
		t.Fatalf("expected partial counters persisted, got %+v", stored)
	}

	var staged []areagendomain.StagedAdoptableArea
	if err := fixture.db.Find(&staged, "batch_id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load staged: %v", err)
	}
	if len(staged) != 1 || staged[0].Name != "North Shore Park" {
		t.Fatalf("expected the first staged area to survive the failure, got %+v", staged)
	}
}

func TestRunBatchMissingBoundsFails(t *testing.T) {
	fixture := setupAreagenTest(t)
	batch := fixture.startBatch(t, 2) // partner without configured bounds

	fixture.orch.RunBatch(context.Background(), batch.ID)

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.ErrorMessage == nil || !strings.Contains(*stored.ErrorMessage, "no bounding box") {
		t.Fatalf("expected missing-bounds message, got %v", stored.ErrorMessage)
	}
}

func TestCancelBatchMidRun(t *testing.T) {
	fixture := setupAreagenTest(t)
	fixture.searcher.block = make(chan struct{})
	fixture.searcher.features = []areagendomain.DiscoveredFeature{
		{Name: "Lincoln Park", Geometry: polygon(), Latitude: 47.53, Longitude: -122.39, SourceRef: "way/1"},
	}
	batch := fixture.startBatch(t, 1)

	done := make(chan struct{})
	go func() {
		fixture.orch.RunBatch(context.Background(), batch.ID)
		close(done)
	}()

	// Wait for the run to register itself before cancelling.
	deadline := time.After(2 * time.Second)
	for !fixture.orch.Cancel(batch.ID) {
		select {
		case <-deadline:
			t.Fatal("batch never registered as running")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(fixture.searcher.block)
	<-done

	stored := fixture.reloadBatch(t, batch.ID)
	if stored.Status != areagendomain.BatchCancelled {
		t.Fatalf("expected cancelled, got %s", stored.Status)
	}
	if stored.StagedCount != 0 {
		t.Fatalf("expected no features staged after cancel, got %d", stored.StagedCount)
	}
}

func TestRunBatchTracksActiveGauge(t *testing.T) {
	fixture := setupAreagenTest(t)
	reg := prometheus.NewRegistry()
	fixture.orch.metrics = obsmetrics.New(reg, obsmetrics.Config{ServiceName: "trashmob", Environment: "test"})
	fixture.searcher.block = make(chan struct{})
	batch := fixture.startBatch(t, 1)

	wantActive := func(v int) error {
		expected := fmt.Sprintf(`
# HELP trashmob_area_batches_active Batches currently in a non-terminal state.
# TYPE trashmob_area_batches_active gauge
trashmob_area_batches_active{env="test",service="trashmob"} %d
`, v)
		return testutil.GatherAndCompare(reg, strings.NewReader(expected), "trashmob_area_batches_active")
	}

	done := make(chan struct{})
	go func() {
		fixture.orch.RunBatch(context.Background(), batch.ID)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for wantActive(1) != nil {
		select {
		case <-deadline:
			t.Fatal("gauge never reported the running batch")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(fixture.searcher.block)
	<-done

	if err := wantActive(0); err != nil {
		t.Fatalf("expected gauge back at zero: %v", err)
	}
}

func TestCancelUnknownBatch(t *testing.T) {
	fixture := setupAreagenTest(t)
	if fixture.orch.Cancel(987654) {
		t.Fatal("expected cancel of unknown batch to report false")
	}
}
