package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/scam-sniffer/internal/analyzer"
	"github.com/richxcame/scam-sniffer/internal/coordination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateRecord(ctx context.Context, record *Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRepository) ListRecords(ctx context.Context, limit, offset int) ([]*Record, error) {
	args := m.Called(ctx, limit, offset)
	records, _ := args.Get(0).([]*Record)
	return records, args.Error(1)
}

func (m *mockRepository) ListAllRecords(ctx context.Context) ([]*Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]*Record)
	return records, args.Error(1)
}

func (m *mockRepository) CountRecords(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) CountScamRecords(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type broadcastCall struct {
	msgType string
	data    interface{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
	live  int
}

func (f *fakeBroadcaster) SendToClient(clientID, msgType string, data interface{}) bool {
	return true
}

func (f *fakeBroadcaster) BroadcastToAdmins(msgType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{msgType: msgType, data: data})
}

func (f *fakeBroadcaster) LiveUserCount() int {
	return f.live
}

func (f *fakeBroadcaster) typesSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.calls))
	for i, call := range f.calls {
		types[i] = call.msgType
	}
	return types
}

func newTestService(repo *mockRepository) (*Service, *fakeBroadcaster) {
	broadcaster := &fakeBroadcaster{}
	svc := NewService(repo, coordination.NewWindow(coordination.DefaultWindow)).
		WithBroadcaster(broadcaster).
		WithNow(func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) })
	return svc, broadcaster
}

func TestAnalyzePersistsForKnownIdentity(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	repo.On("CreateRecord", mock.Anything, mock.MatchedBy(func(r *Record) bool {
		return r.Email == "user@example.com" &&
			r.Score == 55 &&
			r.Level == analyzer.RiskLevelMedium &&
			r.IsScam
	})).Return(nil)

	outcome := svc.Analyze(context.Background(), "Click here now: http://bit.ly/x to verify your password", "conn-1", "user@example.com")

	require.NotNil(t, outcome)
	assert.Equal(t, 55, outcome.Result.Score)
	assert.Nil(t, outcome.Signal)
	repo.AssertExpectations(t)
}

func TestAnalyzeSkipsPersistenceForAnonymous(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	outcome := svc.Analyze(context.Background(), "hello there", "conn-1", "")

	require.NotNil(t, outcome)
	assert.Equal(t, 0, outcome.Result.Score)
	repo.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything)
}

func TestAnalyzeBroadcastsNewAnalysis(t *testing.T) {
	repo := new(mockRepository)
	svc, broadcaster := newTestService(repo)

	svc.Analyze(context.Background(), "hello there", "conn-1", "")

	assert.Equal(t, []string{"new_analysis"}, broadcaster.typesSeen())
}

func TestAnalyzeEmitsCoordinationAlert(t *testing.T) {
	repo := new(mockRepository)
	svc, broadcaster := newTestService(repo)

	first := svc.Analyze(context.Background(), "free gift card winner", "conn-a", "")
	assert.Nil(t, first.Signal)

	second := svc.Analyze(context.Background(), "congratulations you are a winner of a free gift", "conn-b", "")

	require.NotNil(t, second.Signal)
	assert.GreaterOrEqual(t, second.Signal.MatchCount, 2)
	assert.Contains(t, broadcaster.typesSeen(), "coordination_alert")
}

func TestAnalyzeSameSubmitterNoAlert(t *testing.T) {
	repo := new(mockRepository)
	svc, broadcaster := newTestService(repo)

	svc.Analyze(context.Background(), "free gift card winner", "conn-a", "")
	outcome := svc.Analyze(context.Background(), "free gift card winner", "conn-a", "")

	assert.Nil(t, outcome.Signal)
	assert.NotContains(t, broadcaster.typesSeen(), "coordination_alert")
}

func TestAnalyzeSurvivesPersistenceFailure(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	repo.On("CreateRecord", mock.Anything, mock.Anything).Return(errors.New("db down"))

	outcome := svc.Analyze(context.Background(), "urgent message", "conn-1", "user@example.com")

	require.NotNil(t, outcome)
	assert.Equal(t, 20, outcome.Result.Score)
}

func TestHistoryReturnsRecordsAndTotal(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	stored := []*Record{{ID: uuid.New(), Email: "a@b.c", Score: 55}}
	repo.On("ListRecords", mock.Anything, 20, 0).Return(stored, nil)
	repo.On("CountRecords", mock.Anything).Return(int64(1), nil)

	records, total, err := svc.History(context.Background(), 20, 0)

	require.NoError(t, err)
	assert.Equal(t, stored, records)
	assert.Equal(t, int64(1), total)
}

func TestHistoryPropagatesRepositoryError(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	repo.On("ListRecords", mock.Anything, 20, 0).Return(nil, errors.New("query failed"))

	_, _, err := svc.History(context.Background(), 20, 0)

	assert.Error(t, err)
}

type stubUserCounter struct {
	count int64
	err   error
}

func (s *stubUserCounter) CountUsers(ctx context.Context) (int64, error) {
	return s.count, s.err
}

func TestStatsAggregatesCounts(t *testing.T) {
	repo := new(mockRepository)
	svc, broadcaster := newTestService(repo)
	broadcaster.live = 7

	repo.On("CountRecords", mock.Anything).Return(int64(40), nil)
	repo.On("CountScamRecords", mock.Anything).Return(int64(12), nil)

	stats, err := svc.Stats(context.Background(), &stubUserCounter{count: 5})

	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalUsers)
	assert.Equal(t, int64(40), stats.TotalAnalyses)
	assert.Equal(t, int64(12), stats.TotalScams)
	assert.Equal(t, 7, stats.LiveUsers)
}

func TestDeleteRecordPassesThrough(t *testing.T) {
	repo := new(mockRepository)
	svc, _ := newTestService(repo)

	id := uuid.New()
	repo.On("DeleteRecord", mock.Anything, id).Return(ErrRecordNotFound)

	err := svc.DeleteRecord(context.Background(), id)

	assert.ErrorIs(t, err, ErrRecordNotFound)
}
