package sim

import (
	"math"
	"math/rand"

	"github.com/LaStefan/bpmn-process-optimization/schema"
)

// Process element names used in events and the CSV log.
const (
	ElementArrival     = "patient_arrival"
	ElementAdmission   = "admission"
	ElementIntake      = "intake"
	ElementSurgery     = "surgery"
	ElementNursing     = "nursing"
	ElementReleasing   = "releasing"
	ElementERTreatment = "er_treatment"
	ElementReplanned   = "replanned"
)

// Arrival process parameters, in hours.
const (
	electiveInterarrivalMean  = 2.5 // ~9.6 elective arrivals per day
	emergencyInterarrivalMean = 4.0 // ~6 emergency arrivals per day
	emergencyAdmitFraction    = 0.4 // fraction of ER patients admitted to a bed
)

// Hourly cost rates per resource type.
var resourceRates = map[schema.ResourceType]float64{
	schema.OperatingRoom:  100,
	schema.ABed:           20,
	schema.BBed:           25,
	schema.Intake:         30,
	schema.ERPractitioner: 50,
}

// Cost multipliers for non-regular capacity.
const (
	shortTermRateFactor = 1.5
	overtimeRateFactor  = 2.0
)

// diagnosisWeights is the elective diagnosis mix. Weights sum to 1.
var diagnosisWeights = []struct {
	diag   schema.Diagnosis
	weight float64
}{
	{schema.DiagA1, 0.20},
	{schema.DiagA2, 0.15},
	{schema.DiagA3, 0.10},
	{schema.DiagA4, 0.05},
	{schema.DiagB1, 0.25},
	{schema.DiagB2, 0.10},
	{schema.DiagB3, 0.10},
	{schema.DiagB4, 0.05},
}

// surgeryDurations holds the mean surgery duration per surgical diagnosis.
var surgeryDurations = map[schema.Diagnosis]float64{
	schema.DiagB1: 2,
	schema.DiagB2: 3,
	schema.DiagB3: 4,
	schema.DiagB4: 5,
}

// nursingDurations holds the mean nursing stay per diagnosis.
var nursingDurations = map[schema.Diagnosis]float64{
	schema.DiagA1: 24,
	schema.DiagA2: 32,
	schema.DiagA3: 40,
	schema.DiagA4: 48,
	schema.DiagB1: 48,
	schema.DiagB2: 64,
	schema.DiagB3: 80,
	schema.DiagB4: 96,
	schema.DiagER: 24,
}

// task is one resource-bound step of a care pathway.
type task struct {
	element  string
	resource schema.ResourceType
	duration float64
}

// HealthcareProblem generates patient cases and their care pathways.
// All randomness flows through a single seeded source, so case streams are
// reproducible for a given seed.
type HealthcareProblem struct {
	rng    *rand.Rand
	nextID int
}

// NewHealthcareProblem returns a problem instance seeded for reproducibility.
func NewHealthcareProblem(seed int64) *HealthcareProblem {
	return &HealthcareProblem{rng: rand.New(rand.NewSource(seed)), nextID: 1}
}

// NextElectiveArrival samples the interarrival gap to the next elective patient.
func (p *HealthcareProblem) NextElectiveArrival() float64 {
	return p.rng.ExpFloat64() * electiveInterarrivalMean
}

// NextEmergencyArrival samples the interarrival gap to the next emergency patient.
func (p *HealthcareProblem) NextEmergencyArrival() float64 {
	return p.rng.ExpFloat64() * emergencyInterarrivalMean
}

// NewElectiveCase creates an elective patient arriving at the given time.
func (p *HealthcareProblem) NewElectiveCase(arrival float64) *caseState {
	diag := p.pickDiagnosis()
	tasks := []task{
		{element: ElementIntake, resource: schema.Intake, duration: p.noisy(1, 0.25, 0.5, 2)},
	}
	if diag.Surgical() {
		mean := surgeryDurations[diag]
		tasks = append(tasks, task{
			element:  ElementSurgery,
			resource: schema.OperatingRoom,
			duration: p.noisy(mean, mean/4, 1, mean*2),
		})
	}
	mean := nursingDurations[diag]
	tasks = append(tasks, task{
		element:  ElementNursing,
		resource: diag.BedType(),
		duration: p.noisy(mean, mean/4, mean/2, mean*2),
	})

	c := &caseState{
		id:        p.nextID,
		diagnosis: diag,
		arrival:   arrival,
		tasks:     tasks,
		admission: -1,
		admitted:  -1,
		released:  -1,
	}
	p.nextID++
	return c
}

// NewEmergencyCase creates an emergency patient arriving at the given time.
// Emergency patients bypass admission planning entirely.
func (p *HealthcareProblem) NewEmergencyCase(arrival float64) *caseState {
	tasks := []task{
		{element: ElementERTreatment, resource: schema.ERPractitioner, duration: p.noisy(2, 0.5, 0.5, 6)},
	}
	if p.rng.Float64() < emergencyAdmitFraction {
		mean := nursingDurations[schema.DiagER]
		tasks = append(tasks, task{
			element:  ElementNursing,
			resource: schema.ABed,
			duration: p.noisy(mean, mean/4, mean/2, mean*2),
		})
	}

	c := &caseState{
		id:        p.nextID,
		diagnosis: schema.DiagER,
		arrival:   arrival,
		emergency: true,
		tasks:     tasks,
		admission: -1,
		admitted:  -1,
		released:  -1,
	}
	p.nextID++
	return c
}

// pickDiagnosis samples an elective diagnosis from the configured mix.
func (p *HealthcareProblem) pickDiagnosis() schema.Diagnosis {
	r := p.rng.Float64()
	acc := 0.0
	for _, dw := range diagnosisWeights {
		acc += dw.weight
		if r < acc {
			return dw.diag
		}
	}
	return diagnosisWeights[len(diagnosisWeights)-1].diag
}

// noisy samples a normal value around mean, clipped to [lo, hi].
func (p *HealthcareProblem) noisy(mean, sd, lo, hi float64) float64 {
	v := mean + p.rng.NormFloat64()*sd
	return math.Min(hi, math.Max(lo, v))
}

// FullCapacityHourlyRate is the regular cost per hour of running every
// resource at its cap. Used to normalize the cost KPI.
func FullCapacityHourlyRate() float64 {
	total := 0.0
	for rt, limit := range schema.ResourceCaps {
		total += float64(limit) * resourceRates[rt]
	}
	return total
}
