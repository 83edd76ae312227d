package scoring

// Task is one daily duty an active NPC can perform.
type Task string

const (
	TaskTraining       Task = "training"
	TaskPatrol         Task = "patrol"
	TaskLogistics      Task = "logistics"
	TaskMedicalSupport Task = "medical-support"
	TaskIntelReview    Task = "intel-review"
	TaskAcademyDrill   Task = "academy-drill"
)

// Tasks is the fixed task set in selection order. Ties go to the earlier task.
var Tasks = []Task{
	TaskTraining,
	TaskPatrol,
	TaskLogistics,
	TaskMedicalSupport,
	TaskIntelReview,
	TaskAcademyDrill,
}

// TaskInputs are the trait values a utility reads.
type TaskInputs struct {
	Tactical     float64
	Support      float64
	Leadership   float64
	Resilience   float64
	Intelligence float64
	Competence   float64
	Fatigue      float64
	Trauma       float64
	RiskPenalty  float64
}

// TaskBias is the small deterministic per-task preference of one NPC-day, in [0, 3].
func TaskBias(seed uint32, task Task) float64 {
	return Unit(seed, string(task)) * 3
}

// TaskUtility scores one task. Higher is better.
func TaskUtility(task Task, in TaskInputs, seed uint32) float64 {
	var base float64
	risk := in.RiskPenalty
	switch task {
	case TaskTraining:
		base = in.Tactical*0.45 + in.Resilience*0.25 + in.Competence*0.2
	case TaskPatrol:
		base = in.Tactical*0.4 + in.Resilience*0.35 + in.Leadership*0.15
	case TaskLogistics:
		base = in.Support*0.45 + in.Competence*0.35 + in.Intelligence*0.1
		risk *= 1.6
	case TaskMedicalSupport:
		base = in.Support*0.5 + in.Intelligence*0.25 + in.Resilience*0.1
	case TaskIntelReview:
		base = in.Intelligence*0.55 + in.Competence*0.25
	case TaskAcademyDrill:
		base = in.Leadership*0.35 + in.Intelligence*0.25 + in.Competence*0.25
	}
	penalty := in.Fatigue*0.3 + in.Trauma*0.25
	if task == TaskPatrol || task == TaskTraining {
		penalty += in.Fatigue * 0.1
	}
	return base - penalty + TaskBias(seed, task) - risk
}

// SelectTask returns the task with the highest utility.
func SelectTask(in TaskInputs, seed uint32) Task {
	best := Tasks[0]
	bestScore := TaskUtility(best, in, seed)
	for _, t := range Tasks[1:] {
		if s := TaskUtility(t, in, seed); s > bestScore {
			best, bestScore = t, s
		}
	}
	return best
}
