package analytics_test

import (
	"encoding/json"
	"testing"

	"complaintdesk/backend/internal/analytics"
	"complaintdesk/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBy_CountsAndPercentages(t *testing.T) {
	// Arrange
	list := []models.Complaint{
		{Category: "A"}, {Category: "B"}, {Category: "A"},
	}

	// Act
	groups := analytics.GroupBy(list, "category")

	// Assert
	require.Len(t, groups, 2)
	assert.Equal(t, analytics.GroupCount{Name: "A", Complaints: 2, Percentage: 67}, groups[0])
	assert.Equal(t, analytics.GroupCount{Name: "B", Complaints: 1, Percentage: 33}, groups[1])
}

func TestGroupBy_EmptyList(t *testing.T) {
	groups := analytics.GroupBy(nil, "category")
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupBy_MissingValuesAreUnknown(t *testing.T) {
	list := []models.Complaint{{Department: "IT"}, {}, {}}

	groups := analytics.GroupBy(list, "department")

	require.Len(t, groups, 2)
	assert.Equal(t, "Unknown", groups[0].Name)
	assert.Equal(t, 2, groups[0].Complaints)
	assert.Equal(t, "IT", groups[1].Name)
}

func TestGroupBy_TiesKeepFirstSeenOrder(t *testing.T) {
	list := []models.Complaint{{Priority: "Low"}, {Priority: "High"}, {Priority: "Medium"}}

	groups := analytics.GroupBy(list, "priority")

	names := []string{groups[0].Name, groups[1].Name, groups[2].Name}
	assert.Equal(t, []string{"Low", "High", "Medium"}, names)
}

func TestGroupBy_ExtraField(t *testing.T) {
	list := []models.Complaint{
		{Extra: map[string]json.RawMessage{"building": json.RawMessage(`"C"`)}},
		{Extra: map[string]json.RawMessage{"building": json.RawMessage(`"C"`)}},
		{Extra: map[string]json.RawMessage{"building": json.RawMessage(`null`)}},
		{Extra: map[string]json.RawMessage{"floor": json.RawMessage(`3`)}},
	}

	groups := analytics.GroupBy(list, "building")

	require.Len(t, groups, 2)
	assert.Equal(t, analytics.GroupCount{Name: "C", Complaints: 2, Percentage: 50}, groups[0])
	assert.Equal(t, analytics.GroupCount{Name: "Unknown", Complaints: 2, Percentage: 50}, groups[1])
}

func TestGroupBy_CountsSumToTotal(t *testing.T) {
	list := []models.Complaint{
		{Status: "pending"}, {Status: "resolved"}, {Status: "pending"}, {}, {Status: "rejected"},
	}

	total := 0
	for _, g := range analytics.GroupBy(list, "status") {
		total += g.Complaints
	}
	assert.Equal(t, len(list), total)
}

func TestSentiment(t *testing.T) {
	tests := []struct {
		name      string
		list      []models.Complaint
		wantScore float64
		wantPos   int
		wantNeg   int
		wantNeu   int
	}{
		{
			name:      "no analyzed complaints is neutral",
			list:      []models.Complaint{{Sentiment: "negative"}},
			wantScore: 50,
		},
		{
			name: "all positive",
			list: []models.Complaint{
				{AIAnalyzed: true, Sentiment: "positive"},
				{AIAnalyzed: true, Sentiment: "Positive"},
			},
			wantScore: 100,
			wantPos:   2,
		},
		{
			name: "mixed with analysis fallback",
			list: []models.Complaint{
				{AIAnalyzed: true, Sentiment: "positive"},
				{AIAnalyzed: true, Analysis: json.RawMessage(`{"sentiment":"negative"}`)},
				{AIAnalyzed: true, Analysis: json.RawMessage(`{"sentiment":"negative"}`)},
				{AIAnalyzed: true},
			},
			wantScore: 37.5,
			wantPos:   1,
			wantNeg:   2,
			wantNeu:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analytics.Sentiment(tt.list)
			assert.InDelta(t, tt.wantScore, s.Score, 0.001)
			assert.Equal(t, tt.wantPos, s.Positive)
			assert.Equal(t, tt.wantNeg, s.Negative)
			assert.Equal(t, tt.wantNeu, s.Neutral)
		})
	}
}

func TestCategories_TopWithConfidence(t *testing.T) {
	list := []models.Complaint{
		{Category: "IT", AIAnalyzed: true, AIConfidence: 80},
		{Category: "IT", AIAnalyzed: true, AIConfidence: 91},
		{Category: "IT"},
		{Category: "Food"},
		{Category: "Hostel"},
		{},
	}

	stats := analytics.Categories(list, 2)

	require.Len(t, stats, 2)
	assert.Equal(t, analytics.CategoryStat{Name: "IT", Count: 3, AvgConfidence: 85.5}, stats[0])
	assert.Equal(t, "Food", stats[1].Name)
}

func TestDepartments_Averages(t *testing.T) {
	list := []models.Complaint{
		{Department: "Maintenance", Status: "resolved", ResolutionTime: 2, Satisfaction: 4},
		{Department: "Maintenance", Status: "Resolved", ResolutionTime: 4},
		{Department: "Maintenance", Status: "pending", ResolutionTime: 10},
		{Department: "Canteen"},
	}

	stats := analytics.Departments(list, 3)

	require.Len(t, stats, 2)
	assert.Equal(t, "Maintenance", stats[0].Name)
	assert.Equal(t, 3, stats[0].Count)
	assert.InDelta(t, 3.0, stats[0].AvgResolution, 0.001)
	assert.InDelta(t, 4.0, stats[0].Satisfaction, 0.001)
	assert.Zero(t, stats[1].AvgResolution)
}

func TestTrendAndRecent(t *testing.T) {
	list := []models.Complaint{
		{ID: "a", CreatedAt: "2024-03-02T10:00:00.000Z"},
		{ID: "b", CreatedAt: "2024-03-01T09:00:00.000Z"},
		{ID: "c", CreatedAt: "2024-03-02T18:00:00.000Z"},
		{ID: "d", CreatedAt: "not a date"},
	}

	trend := analytics.Trend(list)
	assert.Equal(t, []analytics.TrendPoint{
		{Date: "2024-03-01", Count: 1},
		{Date: "2024-03-02", Count: 2},
	}, trend)

	recent := analytics.Recent(list, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "a", recent[1].ID)
	assert.Equal(t, "b", recent[2].ID)
}

func TestSummarize(t *testing.T) {
	// Arrange
	list := []models.Complaint{
		{ID: "1", Status: "pending", Priority: "High", UserType: "Student", CreatedAt: "2024-03-01T10:00:00.000Z"},
		{ID: "2", Status: "resolved", ResolutionTime: 3, FirstResponseTime: 1, AIAnalyzed: true, AIConfidence: 90, Sentiment: "negative"},
		{ID: "3", Status: "resolved", ResolutionTime: 5, FirstResponseTime: 3},
	}

	// Act
	s := analytics.Summarize(list)

	// Assert
	assert.Equal(t, 3, s.TotalComplaints)
	assert.Equal(t, 1, s.TotalAnalyzed)
	assert.Equal(t, 2, s.ResolvedCount)
	assert.Equal(t, 1, s.PendingCount)
	assert.InDelta(t, 66.7, s.ResolutionRate, 0.001)
	assert.InDelta(t, 4.0, s.AvgResolutionTime, 0.001)
	assert.InDelta(t, 2.0, s.AvgFirstResponseTime, 0.001)
	assert.InDelta(t, 90.0, s.AverageConfidence, 0.001)
	assert.InDelta(t, 0.0, s.Sentiment.Score, 0.001)
	assert.Len(t, s.Statuses, 2)
	assert.Len(t, s.Recent, 3)
	assert.Equal(t, "1", s.Recent[0].ID)
}

func TestSummarize_Empty(t *testing.T) {
	s := analytics.Summarize(nil)

	assert.Zero(t, s.TotalComplaints)
	assert.Zero(t, s.ResolutionRate)
	assert.InDelta(t, 50.0, s.Sentiment.Score, 0.001)
	assert.Empty(t, s.Categories)
	assert.Empty(t, s.Recent)
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{
		"2024-03-01T10:00:00.000Z",
		"2024-03-01T10:00:00+05:30",
		"2024-03-01T10:00:00.123",
		"2024-03-01 10:00:00",
		"2024-03-01",
	} {
		_, ok := analytics.ParseTimestamp(in)
		assert.True(t, ok, in)
	}
	_, ok := analytics.ParseTimestamp("")
	assert.False(t, ok)
}
