// Package domains holds the complaint vocabularies (categories, departments and
// urgency levels) for each kind of institution the desk can serve.
package domains

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"complaintdesk/backend/internal/config"
)

// UrgencyLevel describes one priority option.
type UrgencyLevel struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Domain is the vocabulary of one institution type.
type Domain struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Categories    []string       `json:"categories"`
	Departments   []string       `json:"departments"`
	UrgencyLevels []UrgencyLevel `json:"urgencyLevels"`
}

// Registry serves domain vocabularies.
type Registry struct {
	domains map[string]Domain
	mu      sync.RWMutex
}

// NewRegistry returns a registry holding the built-in domains.
// When dir is non-empty, every <id>.json file in it adds or replaces a domain.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{domains: make(map[string]Domain, len(builtin))}
	for _, d := range builtin {
		r.domains[d.ID] = d
	}
	if dir == "" {
		return r, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read domains directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read domain file %s: %w", file.Name(), err)
		}

		var d Domain
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse domain file %s: %w", file.Name(), err)
		}
		d.ID = strings.TrimSuffix(file.Name(), ".json")
		if d.UrgencyLevels == nil {
			d.UrgencyLevels = defaultUrgency
		}
		r.domains[d.ID] = d
	}

	return r, nil
}

// List returns every domain sorted by id.
func (r *Registry) List() []Domain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Domain, 0, len(r.domains))
	for _, d := range r.domains {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Domain) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Get returns the domain with the given id, falling back to the college vocabulary.
// The boolean reports whether id itself was found.
func (r *Registry) Get(id string) (Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.domains[id]; ok {
		return d, true
	}
	return r.domains[config.FallbackDomain], false
}

var defaultUrgency = []UrgencyLevel{
	{Value: "low", Label: "Low Priority", Description: "General issues that can be addressed in regular timeline"},
	{Value: "medium", Label: "Medium Priority", Description: "Issues affecting daily activities, needs attention within a week"},
	{Value: "high", Label: "High Priority", Description: "Issues that need prompt attention"},
	{Value: "critical", Label: "Critical", Description: "Safety concerns or severe disruption requiring immediate attention"},
}

var builtin = []Domain{
	{
		ID:          "college",
		Name:        "Educational Institution",
		Description: "Complaint management for colleges, universities, and educational institutes",
		Categories: []string{
			"Academic Issues", "Infrastructure/Facilities", "Fee & Financial Issues",
			"Parking & Transportation", "Hostel/Accommodation", "Food Services/Canteen",
			"IT & Technical Support", "Library Services", "Administrative Services",
			"Student Services", "Security & Safety", "Other",
		},
		Departments: []string{
			"Academic Affairs", "Student Affairs", "Finance Office", "Maintenance & Facilities",
			"IT Department", "Library", "Security", "Hostel Administration", "Food Services",
			"Transport Office", "Administration", "General",
		},
		UrgencyLevels: []UrgencyLevel{
			{Value: "low", Label: "Low Priority", Description: "General issues that can be addressed in regular timeline"},
			{Value: "medium", Label: "Medium Priority", Description: "Issues affecting daily activities, needs attention within a week"},
			{Value: "high", Label: "High Priority", Description: "Issues affecting academic work or student welfare, needs prompt attention"},
			{Value: "critical", Label: "Critical", Description: "Safety concerns or issues severely disrupting academic activities"},
		},
	},
	{
		ID:          "hospital",
		Name:        "Healthcare Institution",
		Description: "Complaint management for hospitals and medical facilities",
		Categories: []string{
			"Medical Equipment", "Staff Behavior", "Patient Care Quality", "Billing & Insurance",
			"Facility Cleanliness", "Wait Times", "Food Services", "Security", "Administrative", "Other",
		},
		Departments: []string{
			"Medical Equipment Services", "Patient Care", "Administration", "Billing", "Housekeeping",
			"Security", "Food Services", "Human Resources", "IT Support", "General",
		},
		UrgencyLevels: []UrgencyLevel{
			{Value: "low", Label: "Low Priority", Description: "General issues that don't affect patient care"},
			{Value: "medium", Label: "Medium Priority", Description: "Issues affecting patient experience or staff efficiency"},
			{Value: "high", Label: "High Priority", Description: "Issues that could impact patient care quality"},
			{Value: "critical", Label: "Critical", Description: "Patient safety concerns requiring immediate attention"},
		},
	},
	{
		ID:          "business",
		Name:        "Business/Corporate Office",
		Description: "Complaint management for offices and business organizations",
		Categories: []string{
			"Technical/IT Issues", "Human Resources", "Facility Management", "Administrative",
			"Customer Service", "Finance/Payroll", "Security", "Health & Safety", "Other",
		},
		Departments: []string{
			"IT Support", "Human Resources", "Administration", "Facilities", "Finance",
			"Security", "Management", "Customer Service", "General",
		},
		UrgencyLevels: []UrgencyLevel{
			{Value: "low", Label: "Low Priority", Description: "Minor issues that can be addressed in regular workflow"},
			{Value: "medium", Label: "Medium Priority", Description: "Issues affecting productivity or employee satisfaction"},
			{Value: "high", Label: "High Priority", Description: "Issues affecting business operations or client satisfaction"},
			{Value: "critical", Label: "Critical", Description: "Business-critical issues requiring immediate resolution"},
		},
	},
}
