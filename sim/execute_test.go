package sim

import (
	"context"
	"testing"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/internal/simstore"
	"github.com/LaStefan/bpmn-process-optimization/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Planner:      schema.BaselinePlanner,
		Planners:     []schema.PlannerKind{schema.BaselinePlanner, schema.HeuristicPlanner},
		Seed:         2018,
		HorizonHours: 2 * schema.HoursPerWeek,
		ResultLimit:  contract.DefaultResultLimit,
		Workers:      2,
		Precision:    1,
		Output:       schema.TextOut,
		KPIWeights:   contract.DefaultKPIWeights,
		Thresholds:   contract.DefaultThresholds,
	}
}

func TestGetRunResults(t *testing.T) {
	cfg := testConfig()

	result, err := GetRunResults(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, schema.BaselinePlanner, result.Planner)
	assert.Equal(t, int64(2018), result.Seed)
	assert.Equal(t, cfg.HorizonHours, result.Horizon)
	assert.Greater(t, result.Report.CasesArrived, 0)
	assert.Len(t, result.Outcomes, result.Report.CasesArrived)
	assert.False(t, result.StartedAt.IsZero())
}

func TestGetRunResultsRecordsToStore(t *testing.T) {
	cfg := testConfig()
	cfg.HorizonHours = 3 * schema.HoursPerDay

	store := &simstore.MockRunStore{}
	store.On("BeginRun", string(schema.BaselinePlanner), int64(2018), cfg.HorizonHours,
		mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	store.On("RecordCaseOutcome", int64(7), mock.AnythingOfType("schema.CaseOutcome")).Return(nil)
	store.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), mock.AnythingOfType("float64")).Return(nil)

	mgr := &simstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	result, err := GetRunResults(context.Background(), cfg, mgr)
	require.NoError(t, err)
	require.NotEmpty(t, result.Outcomes)

	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "RecordCaseOutcome", len(result.Outcomes))
}

func TestGetRunResultsStoreFailureIsNonFatal(t *testing.T) {
	cfg := testConfig()
	cfg.HorizonHours = 2 * schema.HoursPerDay

	store := &simstore.MockRunStore{}
	store.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), assert.AnError)

	mgr := &simstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	result, err := GetRunResults(context.Background(), cfg, mgr)
	require.NoError(t, err, "a broken store must not fail the simulation")
	assert.NotNil(t, result)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetCompareResults(t *testing.T) {
	cfg := testConfig()

	comparison, err := GetCompareResults(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.Len(t, comparison.Runs, 2)
	assert.Equal(t, schema.BaselinePlanner, comparison.Runs[0].Planner, "run order follows the planner list")
	assert.Equal(t, schema.HeuristicPlanner, comparison.Runs[1].Planner)
	assert.Equal(t, cfg.Seed, comparison.Seed)

	bestScore := comparison.Runs[0].Report.Score
	for _, run := range comparison.Runs {
		if run.Report.Score < bestScore {
			bestScore = run.Report.Score
		}
		assert.Equal(t, cfg.Seed, run.Seed, "every planner sees the same scenario")
	}
	for _, run := range comparison.Runs {
		if run.Planner == comparison.Best {
			assert.Equal(t, bestScore, run.Report.Score)
		}
	}
}

func TestGetCompareResultsSingleWorker(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 1
	cfg.HorizonHours = 3 * schema.HoursPerDay

	sequential, err := GetCompareResults(context.Background(), cfg, nil)
	require.NoError(t, err)

	cfg = testConfig()
	cfg.Workers = 8
	cfg.HorizonHours = 3 * schema.HoursPerDay
	parallel, err := GetCompareResults(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, sequential.Best, parallel.Best)
	for i := range sequential.Runs {
		assert.Equal(t, sequential.Runs[i].Report, parallel.Runs[i].Report,
			"worker count must not change results")
	}
}

func TestEvaluateThresholds(t *testing.T) {
	result := &schema.RunResult{
		Planner: schema.HeuristicPlanner,
		Report: schema.KPIReport{
			MeanWTA:     50,
			MeanWTH:     10,
			Nervousness: 0.4,
			Cost:        schema.CostBreakdown{Regular: 1e6},
		},
	}

	t.Run("all pass", func(t *testing.T) {
		check := evaluateThresholds(result, map[schema.KPIKey]float64{
			schema.KPIWaitingAdmission: 72,
			schema.KPIWaitingHospital:  24,
			schema.KPINervousness:      1.0,
			schema.KPICost:             5e6,
		})
		assert.True(t, check.Passed)
		assert.Empty(t, check.Violations)
		assert.Equal(t, schema.HeuristicPlanner, check.Planner)
	})

	t.Run("two violations", func(t *testing.T) {
		check := evaluateThresholds(result, map[schema.KPIKey]float64{
			schema.KPIWaitingAdmission: 48,
			schema.KPIWaitingHospital:  24,
			schema.KPINervousness:      0.2,
			schema.KPICost:             5e6,
		})
		require.False(t, check.Passed)
		require.Len(t, check.Violations, 2)
		assert.Equal(t, schema.KPIWaitingAdmission, check.Violations[0].KPI)
		assert.InDelta(t, 50.0, check.Violations[0].Value, 1e-9)
		assert.Equal(t, schema.KPINervousness, check.Violations[1].KPI)
	})

	t.Run("missing keys are not gated", func(t *testing.T) {
		check := evaluateThresholds(result, map[schema.KPIKey]float64{
			schema.KPICost: 5e6,
		})
		assert.True(t, check.Passed)
	})

	t.Run("equal value passes", func(t *testing.T) {
		check := evaluateThresholds(result, map[schema.KPIKey]float64{
			schema.KPIWaitingAdmission: 50,
		})
		assert.True(t, check.Passed)
	})
}

func TestPlannerEventLogPath(t *testing.T) {
	tests := []struct {
		name string
		base string
		kind schema.PlannerKind
		want string
	}{
		{"empty base", "", schema.HeuristicPlanner, ""},
		{"with extension", "events.csv", schema.HeuristicPlanner, "events_heuristic.csv"},
		{"nested path", "out/log.csv", schema.BaselinePlanner, "out/log_baseline.csv"},
		{"no extension", "events", schema.OptimizedPlanner, "events_optimized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plannerEventLogPath(tt.base, tt.kind))
		})
	}
}

func TestRecordRunSkipsNilStore(t *testing.T) {
	mgr := &simstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)

	// Must not panic and must not attempt any store calls.
	recordRun(mgr, &schema.RunResult{Planner: schema.BaselinePlanner, StartedAt: time.Now()})
	mgr.AssertExpectations(t)
}
