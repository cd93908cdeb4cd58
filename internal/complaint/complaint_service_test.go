package complaint_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/analytics"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*complaint.Service, *storage.FileStore, *MockClassifier) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "complaints.json"))
	require.NoError(t, err)

	classifier := new(MockClassifier)
	svc := complaint.NewService(store, classifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return fixedNow }
	n := 0
	svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, store, classifier
}

func fields(t *testing.T, v map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(v))
	for k, val := range v {
		raw, err := json.Marshal(val)
		require.NoError(t, err)
		out[k] = raw
	}
	return out
}

func validFields(t *testing.T) map[string]json.RawMessage {
	return fields(t, map[string]any{
		"title":       "Wi-Fi down",
		"description": "No signal in hostel B",
		"contactInfo": "a@example.com",
	})
}

func TestCreate_AssignsIdentityAndDefaults(t *testing.T) {
	// Arrange
	svc, _, _ := newService(t)
	in := validFields(t)
	in["status"] = json.RawMessage(`"resolved"`)
	in["id"] = json.RawMessage(`"caller-chosen"`)
	in["aiAnalyzed"] = json.RawMessage(`true`)
	in["room"] = json.RawMessage(`"B-12"`)

	// Act
	c, err := svc.Create(context.Background(), in)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.False(t, c.AIAnalyzed)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.Timestamp)
	assert.Equal(t, "Medium", c.Priority)
	assert.Equal(t, "Student", c.UserType)
	assert.Equal(t, "default", c.Domain)
	assert.Equal(t, json.RawMessage(`"B-12"`), c.Extra["room"])
}

func TestCreate_KeepsCallerClassification(t *testing.T) {
	svc, _, _ := newService(t)
	in := validFields(t)
	in["priority"] = json.RawMessage(`"Critical"`)
	in["timestamp"] = json.RawMessage(`"2024-02-28T08:00:00.000Z"`)

	c, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "Critical", c.Priority)
	assert.Equal(t, "2024-02-28T08:00:00.000Z", c.Timestamp)
}

func TestCreate_ReadAfterWrite(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0])
	assert.Equal(t, b, list[1])
	assert.NotEqual(t, list[0].ID, list[1].ID)
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, fields(t, map[string]any{"title": "only a title", "description": "  "}))

	var verr *complaint.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, complaint.ErrValidation)
	assert.Equal(t, []string{"contactInfo", "description"}, verr.Fields)

	list, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_WrongFieldType(t *testing.T) {
	svc, _, _ := newService(t)
	in := validFields(t)
	in["title"] = json.RawMessage(`42`)

	_, err := svc.Create(context.Background(), in)

	var verr *complaint.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, complaint.ErrValidation)
	assert.Equal(t, "field title has the wrong type", verr.Error())
	assert.NotContains(t, verr.Error(), "json:")
}

func TestUpdate_WrongFieldTypeKeepsStore(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, map[string]json.RawMessage{"aiConfidence": json.RawMessage(`"high"`)})

	var verr *complaint.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "field aiConfidence has the wrong type", verr.Error())
	list, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Complaint{c}, list)
}

func TestUpdate_ShallowMergeAndImmutableFields(t *testing.T) {
	// Arrange
	svc, _, _ := newService(t)
	ctx := context.Background()
	in := validFields(t)
	in["analysis"] = json.RawMessage(`{"sentiment":"negative","keywords":["wifi"]}`)
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	svc.Now = func() time.Time { return fixedNow.Add(time.Hour) }

	// Act
	updated, err := svc.Update(ctx, created.ID, fields(t, map[string]any{
		"status":    "resolved",
		"id":        "hijack",
		"createdAt": "1999-01-01T00:00:00.000Z",
		"analysis":  map[string]any{"sentiment": "positive"},
	}))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, models.StatusResolved, updated.Status)
	assert.Equal(t, "2024-03-01T11:00:00.000Z", updated.UpdatedAt)
	assert.JSONEq(t, `{"sentiment":"positive"}`, string(updated.Analysis))
	assert.Equal(t, created.Title, updated.Title)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdate_NotFoundLeavesStoreUntouched(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)
	before, err := store.LoadAll(ctx)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "missing", fields(t, map[string]any{"status": "resolved"}))

	assert.ErrorIs(t, err, complaint.ErrNotFound)
	after, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDelete_PreservesOrderOfOthers(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, validFields(t))
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, "id-2"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "id-1", list[0].ID)
	assert.Equal(t, "id-3", list[1].ID)

	assert.ErrorIs(t, svc.Delete(ctx, "id-2"), complaint.ErrNotFound)
	_, err = svc.Get(ctx, "id-2")
	assert.ErrorIs(t, err, complaint.ErrNotFound)
}

func TestAnalyze_StoresClassification(t *testing.T) {
	// Arrange
	svc, _, classifier := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)
	classifier.On("Classify", mock.Anything, "No signal in hostel B").Return(analysis.Classification{
		Category: "IT & Technical Support", Priority: "High", Type: "Technical",
		Department: "IT Department", Confidence: 88.4,
	}, nil)

	// Act
	analyzed, err := svc.Analyze(ctx, created.ID)

	// Assert
	require.NoError(t, err)
	assert.True(t, analyzed.AIAnalyzed)
	assert.Equal(t, "IT & Technical Support", analyzed.Category)
	assert.Equal(t, "High", analyzed.Priority)
	assert.Equal(t, "Technical", analyzed.Type)
	assert.Equal(t, "IT Department", analyzed.Department)
	assert.InDelta(t, 88.4, analyzed.AIConfidence, 0.001)
	classifier.AssertExpectations(t)
}

func TestAnalyze_ClassifierUnavailable(t *testing.T) {
	svc, _, classifier := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)
	classifier.On("Classify", mock.Anything, mock.Anything).Return(analysis.Classification{}, analysis.ErrUnavailable)

	_, err = svc.Analyze(ctx, created.ID)

	assert.ErrorIs(t, err, analysis.ErrUnavailable)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.AIAnalyzed)
}

func TestAnalyze_NotFound(t *testing.T) {
	svc, _, classifier := newService(t)

	_, err := svc.Analyze(context.Background(), "missing")

	assert.ErrorIs(t, err, complaint.ErrNotFound)
	classifier.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestWrites_PublishEventsAndInvalidateCache(t *testing.T) {
	// Arrange
	svc, _, _ := newService(t)
	ctx := context.Background()
	events := new(MockPublisher)
	cache := new(MockCache)
	svc.Events = events
	svc.Cache = cache

	events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything).Return(nil)

	// Act
	c, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)
	_, err = svc.Update(ctx, c.ID, fields(t, map[string]any{"status": "in_progress"}))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c.ID))

	// Assert
	cache.AssertNumberOfCalls(t, "Invalidate", 3)
	events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ComplaintEvent) bool {
		return ev.Type == models.EventCreated && ev.ComplaintID == c.ID && ev.Complaint != nil
	}))
	events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ComplaintEvent) bool {
		return ev.Type == models.EventUpdated && ev.Complaint.Status == models.StatusInProgress
	}))
	events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev models.ComplaintEvent) bool {
		return ev.Type == models.EventDeleted && ev.Complaint == nil
	}))
}

func TestWrites_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, _, _ := newService(t)
	events := new(MockPublisher)
	svc.Events = events
	events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := svc.Create(context.Background(), validFields(t))

	assert.NoError(t, err)
}

func TestCreate_NotifiesInBackground(t *testing.T) {
	svc, _, _ := newService(t)
	notifier := new(MockNotifier)
	svc.Notifier = notifier
	done := make(chan struct{})
	notifier.On("NotifyCreated", mock.Anything, mock.MatchedBy(func(c models.Complaint) bool {
		return c.ID == "id-1"
	})).Return(nil).Run(func(mock.Arguments) { close(done) })

	_, err := svc.Create(context.Background(), validFields(t))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestSummary_UsesCache(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, validFields(t))
	require.NoError(t, err)

	cache := new(MockCache)
	svc.Cache = cache
	cache.On("Get", mock.Anything).Return(nil, false, nil).Once()
	cache.On("Set", mock.Anything, mock.Anything).Return(nil).Once()

	// Miss: computed from the store and written back.
	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalComplaints)
	cache.AssertCalled(t, "Set", mock.Anything, mock.Anything)

	// Hit: served from the cached bytes.
	cached, err := json.Marshal(analytics.Summary{TotalComplaints: 42})
	require.NoError(t, err)
	cache.On("Get", mock.Anything).Return(cached, true, nil).Once()

	s, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, s.TotalComplaints)
}

func TestSummary_CacheErrorFallsBackToStore(t *testing.T) {
	svc, _, _ := newService(t)
	cache := new(MockCache)
	svc.Cache = cache
	cache.On("Get", mock.Anything).Return(nil, false, errors.New("timeout"))
	cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("timeout"))

	s, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Zero(t, s.TotalComplaints)
}

func TestGroups(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for _, cat := range []string{"A", "A", "B"} {
		in := validFields(t)
		in["category"] = json.RawMessage(fmt.Sprintf("%q", cat))
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	groups, err := svc.Groups(ctx, "category")

	require.NoError(t, err)
	assert.Equal(t, []analytics.GroupCount{
		{Name: "A", Complaints: 2, Percentage: 67},
		{Name: "B", Complaints: 1, Percentage: 33},
	}, groups)
}

func TestCorruptStoreSurfaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "complaints.json")
	store, err := storage.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	svc := complaint.NewService(store, analysis.Unconfigured{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err = svc.Create(context.Background(), validFields(t))

	assert.ErrorIs(t, err, storage.ErrCorruptStore)
}

// gatedStore pauses the first LoadAll until release is closed.
type gatedStore struct {
	storage.Storage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) LoadAll(ctx context.Context) ([]models.Complaint, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Storage.LoadAll(ctx)
}

// memCache is a working in-memory Cache.
type memCache struct {
	mu   sync.Mutex
	data []byte
}

func (c *memCache) Get(context.Context) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, c.data != nil, nil
}

func (c *memCache) Set(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	return nil
}

func TestSummary_WriteDuringComputeIsNotMaskedByCache(t *testing.T) {
	// Arrange
	svc, store, _ := newService(t)
	gate := &gatedStore{Storage: store, entered: make(chan struct{}), release: make(chan struct{})}
	svc.Storage = gate
	svc.Cache = &memCache{}
	ctx := context.Background()

	// Act: a summary is in flight when a complaint is created.
	summaryDone := make(chan error, 1)
	go func() {
		_, err := svc.Summary(ctx)
		summaryDone <- err
	}()
	<-gate.entered

	in := validFields(t)
	createDone := make(chan error, 1)
	go func() {
		_, err := svc.Create(ctx, in)
		createDone <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate.release)
	require.NoError(t, <-summaryDone)
	require.NoError(t, <-createDone)

	// Assert
	s, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.TotalComplaints)
}

func TestConcurrentWrites_NoLostUpdates(t *testing.T) {
	// Arrange
	svc, _, _ := newService(t)
	var idMu sync.Mutex
	n := 0
	svc.NewID = func() string {
		idMu.Lock()
		defer idMu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	ctx := context.Background()
	const writers = 20

	// Act: concurrent creates.
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		in := validFields(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, in)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, writers)

	// Act: concurrent updates, one per complaint.
	errs = make(chan error, writers)
	for _, c := range list {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Update(ctx, id, map[string]json.RawMessage{"room": json.RawMessage(fmt.Sprintf("%q", "room-"+id))})
			errs <- err
		}(c.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Assert
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, writers)
	seen := make(map[string]bool, writers)
	for _, c := range list {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		assert.JSONEq(t, fmt.Sprintf("%q", "room-"+c.ID), string(c.Extra["room"]))
	}
}
