package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

func sampleRunRecords() []schema.RunRecord {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)
	score := 41.7
	config := `{"planner":"heuristic","seed":2018}`
	return []schema.RunRecord{
		{
			RunID:        1,
			Planner:      "heuristic",
			Seed:         2018,
			HorizonHours: 8760,
			StartTime:    start,
			EndTime:      &end,
			Score:        &score,
			ConfigParams: &config,
		},
		{
			// Run still in progress: nullable fields stay nil.
			RunID:        2,
			Planner:      "optimized",
			Seed:         99,
			HorizonHours: 672,
			StartTime:    start.Add(time.Minute),
		},
	}
}

func sampleOutcomeRecords() []schema.CaseOutcomeRecord {
	return []schema.CaseOutcomeRecord{
		{
			RunID:         1,
			CaseID:        0,
			Diagnosis:     "A2",
			ArrivalTime:   12.5,
			AdmissionTime: 38.0,
			ReleaseTime:   110.25,
			WaitingAdm:    25.5,
			WaitingHosp:   3.0,
			Replans:       1,
		},
		{
			RunID:         1,
			CaseID:        1,
			Diagnosis:     "ER",
			ArrivalTime:   14.0,
			AdmissionTime: 14.0,
			ReleaseTime:   -1,
			WaitingAdm:    0,
			WaitingHosp:   1.5,
			Emergency:     true,
		},
	}
}

func TestSimulationRunStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	pqSchema := parquet.SchemaOf(new(SimulationRun))
	require.NotNil(t, pqSchema)

	expectedColumns := []string{
		"run_id",
		"planner",
		"seed",
		"horizon_hours",
		"start_time",
		"end_time",
		"score",
		"config_params",
	}

	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestCaseOutcomeStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	pqSchema := parquet.SchemaOf(new(CaseOutcome))
	require.NotNil(t, pqSchema)

	expectedColumns := []string{
		"run_id",
		"case_id",
		"diagnosis",
		"emergency",
		"arrival_hours",
		"admission_hours",
		"release_hours",
		"waiting_admission_hours",
		"waiting_hospital_hours",
		"replans",
	}

	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestWriteSimulationRunsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "simulation_runs.parquet")

	data := ConvertRunRecords(sampleRunRecords())
	require.NotEmpty(t, data)

	err := WriteSimulationRunsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err, "Should be able to open output file")
	defer file.Close()

	reader := parquet.NewGenericReader[SimulationRun](file)
	defer reader.Close()

	readData := make([]SimulationRun, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].RunID, readData[i].RunID, "RunID should match")
		assert.Equal(t, data[i].Planner, readData[i].Planner, "Planner should match")
		assert.Equal(t, data[i].Seed, readData[i].Seed, "Seed should match")
		assert.InDelta(t, data[i].HorizonHours, readData[i].HorizonHours, 0.001, "HorizonHours should match")
		assert.WithinDuration(t, data[i].StartTime, readData[i].StartTime, time.Nanosecond, "StartTime should match within nanosecond precision")

		// Check nullable fields
		if data[i].EndTime == nil {
			assert.Nil(t, readData[i].EndTime, "EndTime should be nil")
		} else {
			require.NotNil(t, readData[i].EndTime, "EndTime should not be nil")
			assert.WithinDuration(t, *data[i].EndTime, *readData[i].EndTime, time.Nanosecond, "EndTime should match within nanosecond precision")
		}

		if data[i].Score == nil {
			assert.Nil(t, readData[i].Score, "Score should be nil")
		} else {
			require.NotNil(t, readData[i].Score, "Score should not be nil")
			assert.InDelta(t, *data[i].Score, *readData[i].Score, 0.001, "Score should match")
		}

		if data[i].ConfigParams == nil {
			assert.Nil(t, readData[i].ConfigParams, "ConfigParams should be nil")
		} else {
			require.NotNil(t, readData[i].ConfigParams, "ConfigParams should not be nil")
			assert.Equal(t, *data[i].ConfigParams, *readData[i].ConfigParams, "ConfigParams should match")
		}
	}
}

func TestWriteCaseOutcomesParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "case_outcomes.parquet")

	data := ConvertCaseOutcomeRecords(sampleOutcomeRecords())
	require.NotEmpty(t, data)

	err := WriteCaseOutcomesParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	// Read back and verify data
	file, err := os.Open(outputPath)
	require.NoError(t, err, "Should be able to open output file")
	defer file.Close()

	reader := parquet.NewGenericReader[CaseOutcome](file)
	defer reader.Close()

	readData := make([]CaseOutcome, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].RunID, readData[i].RunID, "RunID should match")
		assert.Equal(t, data[i].CaseID, readData[i].CaseID, "CaseID should match")
		assert.Equal(t, data[i].Diagnosis, readData[i].Diagnosis, "Diagnosis should match")
		assert.Equal(t, data[i].Emergency, readData[i].Emergency, "Emergency should match")
		assert.InDelta(t, data[i].ArrivalHours, readData[i].ArrivalHours, 0.001, "ArrivalHours should match")
		assert.InDelta(t, data[i].AdmissionHours, readData[i].AdmissionHours, 0.001, "AdmissionHours should match")
		assert.InDelta(t, data[i].ReleaseHours, readData[i].ReleaseHours, 0.001, "ReleaseHours should match")
		assert.InDelta(t, data[i].WaitingAdmissionHours, readData[i].WaitingAdmissionHours, 0.001, "WaitingAdmissionHours should match")
		assert.InDelta(t, data[i].WaitingHospitalHours, readData[i].WaitingHospitalHours, 0.001, "WaitingHospitalHours should match")
		assert.Equal(t, data[i].Replans, readData[i].Replans, "Replans should match")
	}
}

func TestWriteSimulationRunsParquet_EmptyData(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "empty_simulation_runs.parquet")

	err := WriteSimulationRunsParquet([]SimulationRun{}, outputPath)
	require.NoError(t, err, "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteCaseOutcomesParquet_EmptyData(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "empty_case_outcomes.parquet")

	err := WriteCaseOutcomesParquet([]CaseOutcome{}, outputPath)
	require.NoError(t, err, "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteSimulationRunsParquet_InvalidPath(t *testing.T) {
	data := ConvertRunRecords(sampleRunRecords())
	err := WriteSimulationRunsParquet(data, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}

func TestWriteCaseOutcomesParquet_InvalidPath(t *testing.T) {
	data := ConvertCaseOutcomeRecords(sampleOutcomeRecords())
	err := WriteCaseOutcomesParquet(data, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}

func TestConvertRunRecords(t *testing.T) {
	records := sampleRunRecords()
	converted := ConvertRunRecords(records)
	require.Len(t, converted, len(records))

	assert.Equal(t, int64(1), converted[0].RunID)
	assert.Equal(t, "heuristic", converted[0].Planner)
	require.NotNil(t, converted[0].Score)
	assert.InDelta(t, 41.7, *converted[0].Score, 0.001)
	require.NotNil(t, converted[0].ConfigParams)

	// Unfinished run keeps its nullable fields nil
	assert.Equal(t, int64(2), converted[1].RunID)
	assert.Nil(t, converted[1].EndTime)
	assert.Nil(t, converted[1].Score)
	assert.Nil(t, converted[1].ConfigParams)
}

func TestConvertCaseOutcomeRecords(t *testing.T) {
	records := sampleOutcomeRecords()
	converted := ConvertCaseOutcomeRecords(records)
	require.Len(t, converted, len(records))

	assert.Equal(t, int64(1), converted[0].RunID)
	assert.Equal(t, int32(0), converted[0].CaseID)
	assert.Equal(t, "A2", converted[0].Diagnosis)
	assert.False(t, converted[0].Emergency)
	assert.Equal(t, int32(1), converted[0].Replans)

	assert.Equal(t, "ER", converted[1].Diagnosis)
	assert.True(t, converted[1].Emergency)
	assert.InDelta(t, -1, converted[1].ReleaseHours, 0.001, "unreleased cases keep the negative sentinel")
}

func TestMockFetchSimulationRuns(t *testing.T) {
	data := MockFetchSimulationRuns()
	require.NotEmpty(t, data, "Mock data should not be empty")
	assert.Len(t, data, 3, "Should return 3 mock records")

	// Verify the structure of mock data
	assert.Equal(t, int64(1), data[0].RunID)
	assert.NotNil(t, data[0].EndTime, "First record should have EndTime")
	assert.NotNil(t, data[0].Score, "First record should have Score")
	assert.NotNil(t, data[0].ConfigParams, "First record should have ConfigParams")

	// Third record should have nil nullable fields
	assert.Equal(t, int64(3), data[2].RunID)
	assert.Nil(t, data[2].EndTime, "Third record should have nil EndTime")
	assert.Nil(t, data[2].Score, "Third record should have nil Score")
	assert.Nil(t, data[2].ConfigParams, "Third record should have nil ConfigParams")
}

func TestMockFetchCaseOutcomes(t *testing.T) {
	data := MockFetchCaseOutcomes()
	require.NotEmpty(t, data, "Mock data should not be empty")
	assert.Len(t, data, 3, "Should return 3 mock records")

	assert.Equal(t, "A2", data[0].Diagnosis)
	assert.True(t, data[2].Emergency, "Third record should be an emergency case")
	assert.Negative(t, data[2].ReleaseHours, "Unreleased cases keep the negative sentinel")
}

func TestConvertRunOutcomes(t *testing.T) {
	run := &schema.RunResult{
		Planner: schema.OptimizedPlanner,
		Seed:    7,
		Horizon: 672,
		Outcomes: []schema.CaseOutcome{
			{
				CaseID:        3,
				Diagnosis:     schema.DiagB4,
				ArrivalTime:   50,
				AdmissionTime: 74,
				ReleaseTime:   -1,
				WaitingAdm:    24,
				WaitingHosp:   2,
				Replans:       2,
			},
		},
	}

	converted := ConvertRunOutcomes(run)
	require.Len(t, converted, 1)

	// The run was never persisted, so there is no run ID to reference.
	assert.Equal(t, int64(0), converted[0].RunID)
	assert.Equal(t, int32(3), converted[0].CaseID)
	assert.Equal(t, string(schema.DiagB4), converted[0].Diagnosis)
	assert.Equal(t, int32(2), converted[0].Replans)
	assert.InDelta(t, 24, converted[0].WaitingAdmissionHours, 0.001)
}
