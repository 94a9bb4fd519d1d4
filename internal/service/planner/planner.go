package planner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"foodcurator/internal/config"
)

const (
	PlanFile      = "collection_plan.json"
	ChecklistFile = "collection_checklist.md"
)

// Priority is the collection urgency of a class.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Entry is the shortfall of one class.
type Entry struct {
	ClassName string
	Category  string
	Current   int
	Needed    int
	Priority  Priority
}

// Plan lists the vocabulary classes still below the target, in class id order.
type Plan struct {
	Target  int
	Entries []Entry
}

// PriorityFor assigns the tier of a class with current samples.
func PriorityFor(current int, params config.CoverageParams) Priority {
	switch {
	case current < params.HighBelow:
		return PriorityHigh
	case current < params.MediumBelow:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Build computes the shortfall of every vocabulary class. Classes that
// already meet the target are omitted; counts for classes outside the
// vocabulary are ignored.
func Build(counts map[string]int, catalog config.Catalog, params config.CoverageParams) *Plan {
	plan := &Plan{Target: params.Target}
	for _, name := range catalog.Vocabulary() {
		current := counts[name]
		needed := params.Target - current
		if needed <= 0 {
			continue
		}

		dish, _ := catalog.Dish(name)
		plan.Entries = append(plan.Entries, Entry{
			ClassName: name,
			Category:  dish.Category,
			Current:   current,
			Needed:    needed,
			Priority:  PriorityFor(current, params),
		})
	}
	return plan
}

// TotalNeeded sums the shortfall of all entries.
func (p *Plan) TotalNeeded() int {
	total := 0
	for _, e := range p.Entries {
		total += e.Needed
	}
	return total
}

// ByPriority returns the entries of one tier.
func (p *Plan) ByPriority(priority Priority) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Priority == priority {
			out = append(out, e)
		}
	}
	return out
}

// Record is one class of collection_plan.json.
type Record struct {
	Current  int      `json:"current"`
	Needed   int      `json:"needed"`
	Priority Priority `json:"priority"`
}

// SavePlan writes collection_plan.json into dir and returns its path.
func SavePlan(dir string, plan *Plan) (string, error) {
	records := make(map[string]Record, len(plan.Entries))
	for _, e := range plan.Entries {
		records[e.ClassName] = Record{Current: e.Current, Needed: e.Needed, Priority: e.Priority}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, PlanFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan: %w", err)
	}
	return path, nil
}

// LoadPlan reads a collection_plan.json written by SavePlan.
func LoadPlan(path string) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return records, nil
}

// TotalRecorded sums the needed counts of a loaded plan.
func TotalRecorded(records map[string]Record) int {
	total := 0
	for _, r := range records {
		total += r.Needed
	}
	return total
}

var collectionTips = []string{
	"📷 Use natural lighting when possible",
	"🔄 Vary angles: top-down, 45-degree, side views",
	"🍽️ Include different portion sizes",
	"🎨 Vary backgrounds and plates",
	"✨ Ensure sharp focus and good contrast",
}

// WriteChecklist writes collection_checklist.md into dir and returns its path.
func WriteChecklist(dir string, plan *Plan, params config.CoverageParams) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ChecklistFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create checklist: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# 📸 Food Collection Checklist\n\n")

	sections := []struct {
		priority Priority
		title    string
	}{
		{PriorityHigh, fmt.Sprintf("High Priority Dishes (< %d samples)", params.HighBelow)},
		{PriorityMedium, fmt.Sprintf("Medium Priority Dishes (%d-%d samples)", params.HighBelow, params.MediumBelow)},
		{PriorityLow, fmt.Sprintf("Low Priority Dishes (%d+ samples)", params.MediumBelow)},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s\n", s.title)
		for _, e := range plan.ByPriority(s.priority) {
			fmt.Fprintf(w, "- [ ] **%s** (%s): %d/%d samples (need %d)\n",
				e.ClassName, e.Category, e.Current, plan.Target, e.Needed)
		}
	}

	fmt.Fprintf(w, "\n## Collection Tips\n")
	for _, tip := range collectionTips {
		fmt.Fprintf(w, "- %s\n", tip)
	}
	fmt.Fprintf(w, "\nTotal images needed: %d\n", plan.TotalNeeded())

	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, f.Close()
}
