package selector

// TaskType categorizes the work a governed call performs.
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskExtraction     TaskType = "extraction"
	TaskSummarization  TaskType = "summarization"
	TaskAnalysis       TaskType = "analysis"
	TaskResearch       TaskType = "research"
)

// QualityLevel is the caller's minimum quality bar.
type QualityLevel string

const (
	QualityBasic    QualityLevel = "basic"
	QualityStandard QualityLevel = "standard"
	QualityPremium  QualityLevel = "premium"
)

// qualityFloor maps a quality level to the minimum acceptable qualityScore.
func qualityFloor(level QualityLevel) int {
	switch level {
	case QualityPremium:
		return 9
	case QualityStandard:
		return 7
	default:
		return 5
	}
}

// Complexity is a task's reasoning-depth tier, ordered low < medium < high.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

func complexityRank(c Complexity) int {
	switch c {
	case ComplexityHigh:
		return 3
	case ComplexityMedium:
		return 2
	default:
		return 1
	}
}

// requiredComplexity maps a task type to the complexity tier it demands.
func requiredComplexity(task TaskType) Complexity {
	switch task {
	case TaskAnalysis, TaskResearch:
		return ComplexityHigh
	case TaskSummarization:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// Capability describes one model's static fitness profile.
type Capability struct {
	Model         string     `yaml:"model"`
	Provider      string     `yaml:"provider"`
	SuitableTasks []TaskType `yaml:"suitable_tasks"`
	QualityScore  int        `yaml:"quality_score"` // 1..10
	SpeedScore    int        `yaml:"speed_score"`   // 1..10
	MaxComplexity Complexity `yaml:"max_complexity"`
}

func (c Capability) suits(task TaskType) bool {
	for _, t := range c.SuitableTasks {
		if t == task {
			return true
		}
	}
	return false
}

// Request asks for the cheapest model meeting a task's requirements,
// optionally biasing one scoring axis.
type Request struct {
	TaskType          TaskType     `json:"task_type"`
	QualityLevel      QualityLevel `json:"quality_level"`
	PrioritizeCost    bool         `json:"prioritize_cost,omitempty"`
	PrioritizeQuality bool         `json:"prioritize_quality,omitempty"`
	PrioritizeSpeed   bool         `json:"prioritize_speed,omitempty"`
}

// Selection is the chosen model plus observability detail. Reasoning is
// human-readable and not meant to be machine-parsed.
type Selection struct {
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	Score        float64  `json:"score"`
	Fallback     bool     `json:"fallback,omitempty"`
	Reasoning    string   `json:"reasoning"`
	Alternatives []string `json:"alternatives,omitempty"`
}
