package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

type stubRepo struct {
	indices map[common.ID]*Index
}

func newStubRepo(indices ...*Index) *stubRepo {
	r := &stubRepo{indices: make(map[common.ID]*Index)}
	for _, i := range indices {
		r.indices[i.ID] = i
	}
	return r
}

func (r *stubRepo) Create(_ context.Context, i *Index) error {
	r.indices[i.ID] = i
	return nil
}

func (r *stubRepo) GetByID(_ context.Context, id common.ID) (*Index, error) {
	if i, ok := r.indices[id]; ok {
		return i, nil
	}
	return nil, errors.New(errors.ErrCodeIndexNotFound, "index not found")
}

func (r *stubRepo) GetByCode(_ context.Context, code string) (*Index, error) {
	for _, i := range r.indices {
		if i.Code == code {
			return i, nil
		}
	}
	return nil, errors.New(errors.ErrCodeIndexNotFound, "index not found")
}

func (r *stubRepo) Update(_ context.Context, i *Index) error {
	r.indices[i.ID] = i
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id common.ID) error {
	delete(r.indices, id)
	return nil
}

func (r *stubRepo) List(_ context.Context, _ ListFilter) ([]*Index, int64, error) {
	var out []*Index
	for _, i := range r.indices {
		out = append(out, i)
	}
	return out, int64(len(out)), nil
}

func (r *stubRepo) ListCompletedByType(_ context.Context, indexType string) ([]*Index, error) {
	var out []*Index
	for _, i := range r.indices {
		if i.IndexType == indexType && i.IsCompleted {
			out = append(out, i)
		}
	}
	return out, nil
}

func newTestService(indices ...*Index) (*Service, *stubRepo) {
	repo := newStubRepo(indices...)
	return NewService(repo, logging.NewNopLogger()), repo
}

func TestCreateIndex_RejectsDuplicateCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateIndex(context.Background(), "ETARI-2025", "مؤشر التقييم", "ETARI")
	require.NoError(t, err)

	_, err = svc.CreateIndex(context.Background(), "ETARI-2025", "مؤشر آخر", "ETARI")
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexAlreadyExists))
}

func TestLinkPrevious_PersistsLink(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")
	svc, repo := newTestService(current, previous)

	linked, err := svc.LinkPrevious(context.Background(), current.ID, previous.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.PreviousIndexID)

	stored, err := repo.GetByID(context.Background(), current.ID)
	require.NoError(t, err)
	assert.Equal(t, previous.ID, *stored.PreviousIndexID)
}

func TestResolvePrevious_ExplicitLinkWins(t *testing.T) {
	previous := completed(t, "BASELINE", "ETARI")
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	current.PreviousIndexID = &previous.ID
	decoy := completed(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, previous, decoy)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "BASELINE", got.Code)
}

func TestResolvePrevious_YearCodeDiscovery(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, previous)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, previous.ID, got.ID)
}

func TestResolvePrevious_NoSignal(t *testing.T) {
	// No year in the code and no explicit link.
	current := newTestIndex(t, "BASELINE", "ETARI")
	svc, _ := newTestService(current)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolvePrevious_MissingPreviousYearIndex(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	svc, _ := newTestService(current)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolvePrevious_FamilyMismatchIsNoSignal(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	// Naming collision from another family.
	other := completed(t, "ETARI-2024", "NAII")
	svc, _ := newTestService(current, other)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolvePrevious_StaleLinkFallsBackToYearCode(t *testing.T) {
	ghost := common.ID("idx-deleted")
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	current.PreviousIndexID = &ghost
	previous := completed(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, previous)

	got, err := svc.ResolvePrevious(context.Background(), current)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, previous.ID, got.ID)
}

func TestMarkCompleted_Service(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	svc, repo := newTestService(current)

	got, err := svc.MarkCompleted(context.Background(), current.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	stored, err := repo.GetByID(context.Background(), current.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)

	_, err = svc.MarkCompleted(context.Background(), current.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexAlreadyComplete))
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle events and cache invalidation
// ─────────────────────────────────────────────────────────────────────────────

type capturingPublisher struct {
	events []common.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event common.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateAll(_ context.Context) error {
	c.calls++
	return nil
}

func TestLinkPrevious_PublishesEventAndInvalidatesContexts(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, previous)

	pub := &capturingPublisher{}
	inv := &countingInvalidator{}
	svc.SetPublisher(pub)
	svc.SetInvalidator(inv)

	_, err := svc.LinkPrevious(context.Background(), current.ID, previous.ID)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventIndexLinked, pub.events[0].EventType())
	linked, ok := pub.events[0].(*LinkedEvent)
	require.True(t, ok)
	assert.Equal(t, string(previous.ID), linked.PreviousIndexID)
	assert.Equal(t, 1, inv.calls)
}

func TestLinkPrevious_RejectedLinkEmitsNothing(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	incomplete := newTestIndex(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, incomplete)

	pub := &capturingPublisher{}
	inv := &countingInvalidator{}
	svc.SetPublisher(pub)
	svc.SetInvalidator(inv)

	_, err := svc.LinkPrevious(context.Background(), current.ID, incomplete.ID)
	require.Error(t, err)
	assert.Empty(t, pub.events)
	assert.Zero(t, inv.calls)
}

func TestUnlinkPrevious_InvalidatesContexts(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	previous := completed(t, "ETARI-2024", "ETARI")
	svc, _ := newTestService(current, previous)
	inv := &countingInvalidator{}
	svc.SetInvalidator(inv)

	_, err := svc.LinkPrevious(context.Background(), current.ID, previous.ID)
	require.NoError(t, err)
	_, err = svc.UnlinkPrevious(context.Background(), current.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.calls)
}

func TestMarkCompleted_PublishesEvent(t *testing.T) {
	current := newTestIndex(t, "ETARI-2025", "ETARI")
	svc, _ := newTestService(current)
	pub := &capturingPublisher{}
	svc.SetPublisher(pub)

	_, err := svc.MarkCompleted(context.Background(), current.ID)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventIndexCompleted, pub.events[0].EventType())
	done, ok := pub.events[0].(*CompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "ETARI-2025", done.Code)
}

func TestCreateIndex_RejectsImplausibleYearCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateIndex(context.Background(), "ETARI-1024", "مؤشر التقييم", "ETARI")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexCodeInvalid))
}
