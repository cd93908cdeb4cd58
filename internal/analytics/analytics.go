// Package analytics derives dashboard statistics from a complaint list.
// Every function here is pure: same input, same output, no I/O.
package analytics

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
)

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	Name       string `json:"name"`
	Complaints int    `json:"complaints"`
	Percentage int    `json:"percentage"`
}

// CategoryStat is a category bucket with the mean classifier confidence of its analyzed complaints.
type CategoryStat struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// DepartmentStat is a department bucket with resolution and satisfaction averages.
type DepartmentStat struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	AvgResolution float64 `json:"avgResolution"`
	AvgConfidence float64 `json:"avgConfidence"`
	Satisfaction  float64 `json:"satisfaction"`
}

// SentimentSummary counts analyzed complaints per sentiment. Score is on a 0-100 scale, 50 neutral.
type SentimentSummary struct {
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Score    float64 `json:"avgSentiment"`
}

// TrendPoint is the number of complaints created on one UTC day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// RecentComplaint is the dashboard digest of a complaint.
type RecentComplaint struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Summary is everything the dashboard shows.
type Summary struct {
	TotalComplaints      int               `json:"totalComplaints"`
	TotalAnalyzed        int               `json:"totalAnalyzed"`
	ResolvedCount        int               `json:"resolvedCount"`
	PendingCount         int               `json:"pendingCount"`
	ResolutionRate       float64           `json:"resolutionRate"`
	AvgResolutionTime    float64           `json:"avgResolutionTime"`
	AvgFirstResponseTime float64           `json:"avgFirstResponseTime"`
	AverageConfidence    float64           `json:"averageConfidence"`
	Sentiment            SentimentSummary  `json:"sentiment"`
	Categories           []CategoryStat    `json:"categories"`
	Departments          []DepartmentStat  `json:"departments"`
	Priorities           []GroupCount      `json:"priorities"`
	Statuses             []GroupCount      `json:"statuses"`
	UserTypes            []GroupCount      `json:"userTypes"`
	Trend                []TrendPoint      `json:"trend"`
	Recent               []RecentComplaint `json:"recent"`
}

var fieldAccessors = map[string]func(models.Complaint) string{
	"category":   func(c models.Complaint) string { return c.Category },
	"department": func(c models.Complaint) string { return c.Department },
	"priority":   func(c models.Complaint) string { return c.Priority },
	"userType":   func(c models.Complaint) string { return c.UserType },
	"status":     func(c models.Complaint) string { return c.Status },
	"domain":     func(c models.Complaint) string { return c.Domain },
	"type":       func(c models.Complaint) string { return c.Type },
	"sentiment":  func(c models.Complaint) string { return c.SentimentLabel() },
}

// fieldValue returns the grouping key of c for field, or "" when absent.
// Fields without an accessor are looked up among the complaint's extra keys.
func fieldValue(c models.Complaint, field string) string {
	if get, ok := fieldAccessors[field]; ok {
		return get(c)
	}
	raw, ok := c.Extra[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch string(raw) {
	case "null", "false", "0":
		return ""
	}
	return string(raw)
}

// GroupBy counts complaints per distinct value of field. Missing values count as "Unknown".
// Percentages are rounded against the total (1 when the list is empty).
// Buckets are ordered by count, descending; ties keep first-seen order.
func GroupBy(complaints []models.Complaint, field string) []GroupCount {
	counts := make(map[string]int)
	var order []string
	for _, c := range complaints {
		name := fieldValue(c, field)
		if name == "" {
			name = config.UnknownGroup
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	total := max(len(complaints), 1)
	groups := make([]GroupCount, 0, len(order))
	for _, name := range order {
		groups = append(groups, GroupCount{
			Name:       name,
			Complaints: counts[name],
			Percentage: int(math.Round(float64(counts[name]) / float64(total) * 100)),
		})
	}
	slices.SortStableFunc(groups, func(a, b GroupCount) int {
		return cmp.Compare(b.Complaints, a.Complaints)
	})
	return groups
}

// AverageResolutionTime averages resolutionTime over resolved complaints with a positive value.
func AverageResolutionTime(complaints []models.Complaint) float64 {
	var sum float64
	var n int
	for _, c := range complaints {
		if c.IsResolved() && c.ResolutionTime > 0 {
			sum += c.ResolutionTime
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// AverageConfidence averages aiConfidence over analyzed complaints, rounded to one decimal.
func AverageConfidence(complaints []models.Complaint) float64 {
	var sum float64
	var n int
	for _, c := range complaints {
		if c.AIAnalyzed {
			sum += c.AIConfidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

// Sentiment buckets analyzed complaints by sentiment label and scores them.
// Unrecognized or missing labels are neutral.
func Sentiment(complaints []models.Complaint) SentimentSummary {
	var s SentimentSummary
	var total, n int
	for _, c := range complaints {
		if !c.AIAnalyzed {
			continue
		}
		n++
		switch strings.ToLower(c.SentimentLabel()) {
		case "positive":
			s.Positive++
			total++
		case "negative":
			s.Negative++
			total--
		default:
			s.Neutral++
		}
	}
	if n == 0 {
		s.Score = config.NeutralSentiment
		return s
	}
	s.Score = (float64(total)/float64(n) + config.SentimentScaleShift) * config.SentimentScaleRange
	return s
}

// Categories returns the top categories by count. Complaints without a category are skipped.
func Categories(complaints []models.Complaint, limit int) []CategoryStat {
	type acc struct {
		count, analyzed int
		confidence      float64
	}
	buckets := make(map[string]*acc)
	var order []string
	for _, c := range complaints {
		if c.Category == "" {
			continue
		}
		b, ok := buckets[c.Category]
		if !ok {
			b = &acc{}
			buckets[c.Category] = b
			order = append(order, c.Category)
		}
		b.count++
		if c.AIAnalyzed {
			b.analyzed++
			b.confidence += c.AIConfidence
		}
	}

	stats := make([]CategoryStat, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		stats = append(stats, CategoryStat{
			Name:          name,
			Count:         b.count,
			AvgConfidence: round1(mean(b.confidence, b.analyzed)),
		})
	}
	slices.SortStableFunc(stats, func(a, b CategoryStat) int { return cmp.Compare(b.Count, a.Count) })
	return truncate(stats, limit)
}

// Departments returns the top departments by count. Complaints without a department are skipped.
func Departments(complaints []models.Complaint, limit int) []DepartmentStat {
	type acc struct {
		count, resolved, analyzed, rated  int
		resolution, confidence, satisfied float64
	}
	buckets := make(map[string]*acc)
	var order []string
	for _, c := range complaints {
		if c.Department == "" {
			continue
		}
		b, ok := buckets[c.Department]
		if !ok {
			b = &acc{}
			buckets[c.Department] = b
			order = append(order, c.Department)
		}
		b.count++
		if c.IsResolved() && c.ResolutionTime > 0 {
			b.resolved++
			b.resolution += c.ResolutionTime
		}
		if c.AIAnalyzed {
			b.analyzed++
			b.confidence += c.AIConfidence
		}
		if c.Satisfaction > 0 {
			b.rated++
			b.satisfied += c.Satisfaction
		}
	}

	stats := make([]DepartmentStat, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		stats = append(stats, DepartmentStat{
			Name:          name,
			Count:         b.count,
			AvgResolution: mean(b.resolution, b.resolved),
			AvgConfidence: round1(mean(b.confidence, b.analyzed)),
			Satisfaction:  round1(mean(b.satisfied, b.rated)),
		})
	}
	slices.SortStableFunc(stats, func(a, b DepartmentStat) int { return cmp.Compare(b.Count, a.Count) })
	return truncate(stats, limit)
}

// Trend counts complaints per creation day, oldest first. Unparseable dates are skipped.
func Trend(complaints []models.Complaint) []TrendPoint {
	counts := make(map[string]int)
	for _, c := range complaints {
		t, ok := ParseTimestamp(c.CreatedAt)
		if !ok {
			continue
		}
		counts[t.UTC().Format(time.DateOnly)]++
	}

	points := make([]TrendPoint, 0, len(counts))
	for date, n := range counts {
		points = append(points, TrendPoint{Date: date, Count: n})
	}
	slices.SortFunc(points, func(a, b TrendPoint) int { return strings.Compare(a.Date, b.Date) })
	return points
}

// Recent returns the newest complaints first. Unparseable dates sort last.
func Recent(complaints []models.Complaint, limit int) []RecentComplaint {
	type dated struct {
		c  models.Complaint
		at time.Time
	}
	list := make([]dated, 0, len(complaints))
	for _, c := range complaints {
		at, _ := ParseTimestamp(c.CreatedAt)
		list = append(list, dated{c: c, at: at})
	}
	slices.SortStableFunc(list, func(a, b dated) int { return b.at.Compare(a.at) })

	out := make([]RecentComplaint, 0, min(limit, len(list)))
	for _, d := range truncate(list, limit) {
		out = append(out, RecentComplaint{
			ID:        d.c.ID,
			Title:     d.c.Title,
			Category:  d.c.Category,
			Status:    d.c.Status,
			CreatedAt: d.c.CreatedAt,
		})
	}
	return out
}

// Summarize computes the full dashboard summary.
func Summarize(complaints []models.Complaint) Summary {
	s := Summary{
		TotalComplaints:   len(complaints),
		AvgResolutionTime: AverageResolutionTime(complaints),
		AverageConfidence: AverageConfidence(complaints),
		Sentiment:         Sentiment(complaints),
		Categories:        Categories(complaints, config.TopCategories),
		Departments:       Departments(complaints, config.TopDepartments),
		Priorities:        GroupBy(complaints, "priority"),
		Statuses:          GroupBy(complaints, "status"),
		UserTypes:         GroupBy(complaints, "userType"),
		Trend:             Trend(complaints),
		Recent:            Recent(complaints, config.RecentComplaints),
	}

	var responseSum float64
	var responses int
	for _, c := range complaints {
		if c.AIAnalyzed {
			s.TotalAnalyzed++
		}
		if c.IsResolved() {
			s.ResolvedCount++
		}
		if strings.EqualFold(c.Status, models.StatusPending) {
			s.PendingCount++
		}
		if c.FirstResponseTime > 0 {
			responseSum += c.FirstResponseTime
			responses++
		}
	}
	s.AvgFirstResponseTime = mean(responseSum, responses)
	if s.TotalComplaints > 0 {
		s.ResolutionRate = round1(float64(s.ResolvedCount) / float64(s.TotalComplaints) * 100)
	}
	return s
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
	time.DateOnly,
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO forms older records carry.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncate[T any](s []T, limit int) []T {
	if limit >= 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
