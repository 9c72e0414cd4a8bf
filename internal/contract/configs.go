package contract

import (
	"fmt"
	"maps"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Default values for configuration.
const (
	DefaultHorizon     = "365 days"
	DefaultSeed        = 2018
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 1
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultKPIWeights are the composite score weights applied when the config
// file provides no overrides. They must sum to 1.0.
var DefaultKPIWeights = map[schema.KPIKey]float64{
	schema.KPIWaitingAdmission: 0.4,
	schema.KPIWaitingHospital:  0.3,
	schema.KPINervousness:      0.2,
	schema.KPICost:             0.1,
}

// DefaultThresholds are the KPI gate values used by the check command when
// neither the config file nor --thresholds-override provides values.
var DefaultThresholds = map[schema.KPIKey]float64{
	schema.KPIWaitingAdmission: 72,    // mean hours
	schema.KPIWaitingHospital:  24,    // mean hours
	schema.KPINervousness:      1.0,   // replans per planned case
	schema.KPICost:             5.0e6, // total cost
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// KPIWeightsRaw holds custom composite score weights from the config file.
// Float pointers distinguish "absent" from zero.
type KPIWeightsRaw struct {
	WTA  *float64 `mapstructure:"wta"`
	WTH  *float64 `mapstructure:"wth"`
	Nerv *float64 `mapstructure:"nerv"`
	Cost *float64 `mapstructure:"cost"`
}

// ThresholdsRawInput holds KPI threshold definitions from the config file.
type ThresholdsRawInput struct {
	WTA  *float64 `mapstructure:"wta"`
	WTH  *float64 `mapstructure:"wth"`
	Nerv *float64 `mapstructure:"nerv"`
	Cost *float64 `mapstructure:"cost"`
}

// Config holds the runtime configuration for simulation runs.
// This struct remains the "final, validated" config.
type Config struct {
	Planner      schema.PlannerKind
	Planners     []schema.PlannerKind // planners exercised by compare
	Seed         int64
	HorizonHours float64
	EventLogFile string
	DataColumns  []string // extra event-log data columns

	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Detail      bool
	Width       int // Terminal width override (0 = auto-detect)

	// Occupancy chart window, in simulation hours.
	ChartFrom float64
	ChartTo   float64

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	// KPIWeights is the final composite score weight per KPI,
	// computed from defaults plus config overrides.
	KPIWeights map[schema.KPIKey]float64

	// Thresholds is the KPI gate value per KPI for the check command.
	Thresholds map[schema.KPIKey]float64

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Planner        string `mapstructure:"planner"`
	Seed           int64  `mapstructure:"seed"`
	Horizon        string `mapstructure:"horizon"`
	EventLog       string `mapstructure:"eventlog"`
	DataColumns    string `mapstructure:"data-columns"`
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Detail         bool   `mapstructure:"detail"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Fields from compareCmd.Flags() ---
	Planners string `mapstructure:"planners"`

	// --- Fields from scheduleCmd.Flags() ---
	ChartFrom string `mapstructure:"chart-from"`
	ChartTo   string `mapstructure:"chart-to"`

	// --- Fields from checkCmd.Flags() ---
	ThresholdsStr string `mapstructure:"thresholds-override"`

	// --- Custom weights from config file ---
	Weights KPIWeightsRaw `mapstructure:"weights"`

	// --- KPI thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Planners != nil {
		clone.Planners = make([]schema.PlannerKind, len(c.Planners))
		copy(clone.Planners, c.Planners)
	}
	if c.DataColumns != nil {
		clone.DataColumns = make([]string, len(c.DataColumns))
		copy(clone.DataColumns, c.DataColumns)
	}
	if c.KPIWeights != nil {
		clone.KPIWeights = make(map[schema.KPIKey]float64)
		maps.Copy(clone.KPIWeights, c.KPIWeights)
	}
	if c.Thresholds != nil {
		clone.Thresholds = make(map[schema.KPIKey]float64)
		maps.Copy(clone.Thresholds, c.Thresholds)
	}
	return &clone
}

// CloneWithPlanner creates a copy of the Config for a single planner run.
func (c *Config) CloneWithPlanner(planner schema.PlannerKind) *Config {
	clone := c.Clone()
	clone.Planner = planner
	return clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw
// inputs and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processHorizon(cfg, input); err != nil {
		return err
	}
	if err := processPlanners(cfg, input); err != nil {
		return err
	}
	if err := processChartWindow(cfg, input); err != nil {
		return err
	}
	if err := processKPIWeights(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection
// strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// RevalidateHorizon re-parses a horizon string on an existing config. It is
// used by programmatic entry points that bypass the normal flag pipeline.
func RevalidateHorizon(cfg *Config, horizonStr string) error {
	if horizonStr == "" {
		return nil
	}
	d, err := ParseHorizonDuration(horizonStr)
	if err != nil {
		return fmt.Errorf("invalid horizon: %w", err)
	}
	cfg.HorizonHours = d.Hours()
	if cfg.HorizonHours < schema.HoursPerDay {
		return fmt.Errorf("horizon must be at least one day (received %s)", horizonStr)
	}
	return nil
}

// RevalidatePlanners re-parses a comma-separated planner list on an existing
// config, for programmatic entry points that bypass the flag pipeline.
func RevalidatePlanners(cfg *Config, plannersStr string) error {
	return processPlanners(cfg, &ConfigRawInput{Planners: plannersStr})
}

// validateSimpleInputs processes and validates all non-derived fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.EventLogFile = input.EventLog
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.Seed = input.Seed

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Planner Validation ---
	cfg.Planner = schema.PlannerKind(strings.ToLower(input.Planner))
	if _, ok := schema.ValidPlannerKinds[cfg.Planner]; !ok {
		return fmt.Errorf("invalid planner '%s'. must be heuristic, optimized, baseline", input.Planner)
	}

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	switch cfg.Output {
	case schema.TextOut, schema.CSVOut, schema.JSONOut, schema.ParquetOut:
	default:
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}

	// --- 5. Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- 6. Event log data columns ---
	cfg.DataColumns = nil
	if input.DataColumns != "" {
		for p := range strings.SplitSeq(input.DataColumns, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.DataColumns = append(cfg.DataColumns, p)
			}
		}
	}

	return nil
}

// processHorizon parses the simulation horizon duration.
func processHorizon(cfg *Config, input *ConfigRawInput) error {
	horizonStr := input.Horizon
	if horizonStr == "" {
		horizonStr = DefaultHorizon
	}
	d, err := ParseHorizonDuration(horizonStr)
	if err != nil {
		return fmt.Errorf("invalid horizon: %w", err)
	}
	cfg.HorizonHours = d.Hours()
	if cfg.HorizonHours < schema.HoursPerDay {
		return fmt.Errorf("horizon must be at least one day (received %s)", horizonStr)
	}
	return nil
}

// processPlanners parses the planner list for the compare command.
func processPlanners(cfg *Config, input *ConfigRawInput) error {
	if input.Planners == "" {
		// Compare all known planners when none are named.
		cfg.Planners = []schema.PlannerKind{
			schema.BaselinePlanner, schema.HeuristicPlanner, schema.OptimizedPlanner,
		}
		return nil
	}
	seen := make(map[schema.PlannerKind]bool)
	cfg.Planners = nil
	for p := range strings.SplitSeq(input.Planners, ",") {
		kind := schema.PlannerKind(strings.ToLower(strings.TrimSpace(p)))
		if kind == "" {
			continue
		}
		if _, ok := schema.ValidPlannerKinds[kind]; !ok {
			return fmt.Errorf("invalid planner '%s' in --planners", kind)
		}
		if !seen[kind] {
			seen[kind] = true
			cfg.Planners = append(cfg.Planners, kind)
		}
	}
	if len(cfg.Planners) < 2 {
		return fmt.Errorf("--planners needs at least two distinct planners")
	}
	return nil
}

// processChartWindow parses the occupancy chart window for the schedule command.
func processChartWindow(cfg *Config, input *ConfigRawInput) error {
	cfg.ChartFrom = schema.HoursPerWeek
	cfg.ChartTo = 4 * schema.HoursPerWeek

	if input.ChartFrom != "" {
		d, err := ParseHorizonDuration(input.ChartFrom)
		if err != nil {
			return fmt.Errorf("invalid chart-from: %w", err)
		}
		cfg.ChartFrom = d.Hours()
	}
	if input.ChartTo != "" {
		d, err := ParseHorizonDuration(input.ChartTo)
		if err != nil {
			return fmt.Errorf("invalid chart-to: %w", err)
		}
		cfg.ChartTo = d.Hours()
	}
	if cfg.ChartFrom >= cfg.ChartTo {
		return fmt.Errorf("chart-from (%.0fh) must be before chart-to (%.0fh)", cfg.ChartFrom, cfg.ChartTo)
	}
	return nil
}

// processKPIWeights converts the raw weight input into the final cfg.KPIWeights
// map and validates that the provided weights sum to 1.0.
func processKPIWeights(cfg *Config, input *ConfigRawInput) error {
	weights := make(map[schema.KPIKey]float64)
	maps.Copy(weights, DefaultKPIWeights)

	custom := map[schema.KPIKey]*float64{
		schema.KPIWaitingAdmission: input.Weights.WTA,
		schema.KPIWaitingHospital:  input.Weights.WTH,
		schema.KPINervousness:      input.Weights.Nerv,
		schema.KPICost:             input.Weights.Cost,
	}
	overridden := false
	for key, val := range custom {
		if val != nil {
			weights[key] = *val
			overridden = true
		}
	}

	if overridden {
		sum := 0.0
		for _, w := range weights {
			if w < 0 {
				return fmt.Errorf("KPI weights must be non-negative")
			}
			sum += w
		}
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("custom KPI weights must sum to 1.0, got %.3f", sum)
		}
	}

	cfg.KPIWeights = weights
	return nil
}

// processThresholds converts the raw threshold input into the final
// cfg.Thresholds map. Command-line --thresholds-override takes precedence
// over config file settings.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := make(map[schema.KPIKey]float64)
	maps.Copy(thresholds, DefaultThresholds)

	fromFile := map[schema.KPIKey]*float64{
		schema.KPIWaitingAdmission: input.Thresholds.WTA,
		schema.KPIWaitingHospital:  input.Thresholds.WTH,
		schema.KPINervousness:      input.Thresholds.Nerv,
		schema.KPICost:             input.Thresholds.Cost,
	}
	for key, val := range fromFile {
		if val != nil {
			thresholds[key] = *val
		}
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	for key, threshold := range thresholds {
		if threshold < 0 {
			return fmt.Errorf("threshold for %s must be non-negative (received %.2f)", key, threshold)
		}
	}

	cfg.Thresholds = thresholds
	return nil
}

// parseThresholdsString parses "wta:48,wth:24,nerv:0.5,cost:2e6" into a map.
func parseThresholdsString(s string) (map[schema.KPIKey]float64, error) {
	result := make(map[schema.KPIKey]float64)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("expected 'kpi:value', got '%s'", part)
		}
		key := schema.KPIKey(strings.ToLower(strings.TrimSpace(kv[0])))
		switch key {
		case schema.KPIWaitingAdmission, schema.KPIWaitingHospital, schema.KPINervousness, schema.KPICost:
		default:
			return nil, fmt.Errorf("unknown KPI '%s'. must be wta, wth, nerv, cost", kv[0])
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		result[key] = val
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no thresholds found in '%s'", s)
	}
	return result, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// ParseHorizonDuration converts strings like "365 days" or "720h" into a single
// time.Duration. It first tries Go's built-in time.ParseDuration for standard
// formats, then falls back to custom parsing for human-readable formats.
func ParseHorizonDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Try Go's built-in duration parsing first (e.g., "720h", "168h", "30m")
	if duration, err := time.ParseDuration(s); err == nil {
		if duration <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return duration, nil
	}

	s = strings.ToLower(s)
	matches := horizonDurationRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	var total time.Duration
	switch unit {
	case "year":
		total = time.Duration(value) * 365 * 24 * time.Hour
	case "month":
		total = time.Duration(value) * 30 * 24 * time.Hour
	case "week":
		total = time.Duration(value) * 7 * 24 * time.Hour
	case "day":
		total = time.Duration(value) * 24 * time.Hour
	case "hour":
		total = time.Duration(value) * time.Hour
	default:
		return 0, fmt.Errorf("unsupported time unit: %s", unit)
	}
	if total <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return total, nil
}
