package sim

import (
	"math"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Composite score normalizers. Each KPI is scaled to roughly [0, 1] before
// weighting; the score itself is scaled to [0, 100].
const (
	wtaNormHours = schema.HoursPerWeek // a week of admission waiting is "maximal"
	wthNormHours = 48                  // two days of in-hospital waiting
	nervNorm     = 2.0                 // two replans per case
)

// kpiTracker accumulates the KPI samples of a single simulation run.
// It mirrors the kpis dictionary of the planner prototypes: WTA samples,
// WTH bucketed per diagnosis, one NERV sample per replanning event, and a
// cost breakdown by rate class.
type kpiTracker struct {
	wta        []float64
	wth        map[schema.Diagnosis][]float64
	nervEvents int
	cost       schema.CostBreakdown

	arrived    int
	admitted   int
	released   int
	violations int
}

func newKPITracker() *kpiTracker {
	return &kpiTracker{wth: make(map[schema.Diagnosis][]float64)}
}

func (k *kpiTracker) recordArrival()                 { k.arrived++ }
func (k *kpiTracker) recordAdmission(waited float64) { k.admitted++; k.wta = append(k.wta, waited) }
func (k *kpiTracker) recordReplan()                  { k.nervEvents++ }
func (k *kpiTracker) recordViolation()               { k.violations++ }

func (k *kpiTracker) recordRelease(diag schema.Diagnosis, inHospitalWait float64) {
	k.released++
	k.wth[diag] = append(k.wth[diag], inHospitalWait)
}

// addCost accrues resource costs over a time slice of dt hours.
func (k *kpiTracker) addCost(rt schema.ResourceType, scheduled, short, busy int, dt float64) {
	rate := resourceRates[rt]
	regular := float64(scheduled-short) * rate * dt
	k.cost.Regular += regular
	k.cost.ShortTerm += float64(short) * rate * shortTermRateFactor * dt
	if over := busy - scheduled; over > 0 {
		k.cost.Overtime += float64(over) * rate * overtimeRateFactor * dt
	}
}

// report finalizes the tracker into a KPI report with a composite score.
func (k *kpiTracker) report(weights map[schema.KPIKey]float64, horizonHours float64) schema.KPIReport {
	rep := schema.KPIReport{
		WTHBuckets:    make(map[schema.Diagnosis]float64, len(k.wth)),
		TotalReplans:  k.nervEvents,
		Cost:          k.cost,
		CasesArrived:  k.arrived,
		CasesAdmitted: k.admitted,
		CasesReleased: k.released,
		Violations:    k.violations,
	}

	rep.MeanWTA, rep.MaxWTA = meanMax(k.wta)

	// Fixed diagnosis order keeps float summation, and with it the mean and
	// the composite score, identical across runs of the same seed.
	var allWTH []float64
	for _, diag := range append(schema.AllDiagnoses, schema.DiagER) {
		samples, ok := k.wth[diag]
		if !ok {
			continue
		}
		m, _ := meanMax(samples)
		rep.WTHBuckets[diag] = m
		allWTH = append(allWTH, samples...)
	}
	rep.MeanWTH, _ = meanMax(allWTH)

	if k.admitted > 0 {
		rep.Nervousness = float64(k.nervEvents) / float64(k.admitted)
	}

	rep.Score = compositeScore(rep, weights, horizonHours)
	return rep
}

// compositeScore combines normalized KPIs into a 0-100 value; lower is better.
func compositeScore(rep schema.KPIReport, weights map[schema.KPIKey]float64, horizonHours float64) float64 {
	costNorm := FullCapacityHourlyRate() * horizonHours
	parts := map[schema.KPIKey]float64{
		schema.KPIWaitingAdmission: rep.MeanWTA / wtaNormHours,
		schema.KPIWaitingHospital:  rep.MeanWTH / wthNormHours,
		schema.KPINervousness:      rep.Nervousness / nervNorm,
		schema.KPICost:             rep.Cost.Total() / costNorm,
	}

	score := 0.0
	for _, key := range []schema.KPIKey{
		schema.KPIWaitingAdmission,
		schema.KPIWaitingHospital,
		schema.KPINervousness,
		schema.KPICost,
	} {
		score += weights[key] * math.Min(1, math.Max(0, parts[key]))
	}
	return score * 100
}

func meanMax(samples []float64) (mean, max float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
		if s > max {
			max = s
		}
	}
	return sum / float64(len(samples)), max
}

// KPIDefinitions returns the render model for the kpis command.
func KPIDefinitions(weights map[schema.KPIKey]float64) schema.KPIRenderModel {
	return schema.KPIRenderModel{
		Definitions: []schema.KPIDefinition{
			{
				Key:     schema.KPIWaitingAdmission,
				Name:    "Waiting time for admission (WTA)",
				Purpose: "Hours an elective patient waits between arrival and the start of intake.",
				Formula: "mean(intake_start - arrival) over admitted cases, normalized by 168h",
				Weight:  weights[schema.KPIWaitingAdmission],
			},
			{
				Key:     schema.KPIWaitingHospital,
				Name:    "Waiting time in hospital (WTH)",
				Purpose: "Hours an admitted patient spends waiting for a resource inside the hospital.",
				Formula: "mean(sum of task queue waits per case), normalized by 48h",
				Weight:  weights[schema.KPIWaitingHospital],
			},
			{
				Key:     schema.KPINervousness,
				Name:    "Nervousness (NERV)",
				Purpose: "How often planned admissions get moved; each replan unsettles a patient.",
				Formula: "replanning events / admitted cases, normalized by 2",
				Weight:  weights[schema.KPINervousness],
			},
			{
				Key:     schema.KPICost,
				Name:    "Resource cost (COST)",
				Purpose: "Cost of scheduled capacity: regular, short-term (under one week notice, 1.5x) and overtime (2x).",
				Formula: "sum(capacity-hours * rate * class factor), normalized by full-capacity cost",
				Weight:  weights[schema.KPICost],
			},
		},
		ScoreNote: "score = 100 * sum(weight * clamp(normalized KPI, 0, 1)); lower is better",
	}
}
