package config

const (
	// Creation defaults
	DefaultPriority = "Medium"
	DefaultUserType = "Student"
	DefaultDomain   = "default"

	// FallbackDomain is served for unknown domain ids.
	FallbackDomain = "college"

	// Aggregation
	UnknownGroup        = "Unknown"
	TopCategories       = 5
	TopDepartments      = 3
	RecentComplaints    = 5
	NeutralSentiment    = 50.0
	SentimentScaleShift = 1.0
	SentimentScaleRange = 50.0
)

// PriorityWeights ranks priority labels. Unknown labels weigh 0.
var PriorityWeights = map[string]int{
	"Low":      5,
	"Medium":   50,
	"High":     150,
	"Critical": 250,
}
