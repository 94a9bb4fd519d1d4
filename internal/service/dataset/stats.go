package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"
)

// Status marks of a class sample count.
const (
	MarkReady   = "✅"
	MarkPartial = "⚠️"
	MarkMissing = "❌"
)

// Progi liczby próbek dla znaczników.
const (
	readyAt   = 50
	partialAt = 20
)

// Mark returns the status mark for a class with count samples.
func Mark(count int) string {
	switch {
	case count >= readyAt:
		return MarkReady
	case count >= partialAt:
		return MarkPartial
	default:
		return MarkMissing
	}
}

// ClassStat is the sample count of one class.
type ClassStat struct {
	Name  string
	Count int
	Mark  string
}

// Summary is the per-class view of a dataset split plus balance figures.
type Summary struct {
	Classes []ClassStat
	Total   int
	Mean    float64
	StdDev  float64
	Min     int
	Max     int
}

// Imbalance is max/min of the class counts; +Inf when some class is empty.
func (s *Summary) Imbalance() float64 {
	if len(s.Classes) == 0 {
		return 0
	}
	if s.Min == 0 {
		return math.Inf(1)
	}
	return float64(s.Max) / float64(s.Min)
}

// Summarize builds per-class stats for every vocabulary class and every
// extra class found in counts, sorted by name.
func Summarize(counts map[string]int, vocabulary []string) *Summary {
	names := make(map[string]struct{}, len(vocabulary)+len(counts))
	for _, name := range vocabulary {
		names[name] = struct{}{}
	}
	for name := range counts {
		names[name] = struct{}{}
	}

	summary := &Summary{Classes: make([]ClassStat, 0, len(names))}
	for name := range names {
		count := counts[name]
		summary.Classes = append(summary.Classes, ClassStat{Name: name, Count: count, Mark: Mark(count)})
	}
	sort.Slice(summary.Classes, func(i, j int) bool {
		return summary.Classes[i].Name < summary.Classes[j].Name
	})

	if len(summary.Classes) == 0 {
		return summary
	}

	values := make([]float64, len(summary.Classes))
	summary.Min = summary.Classes[0].Count
	for i, c := range summary.Classes {
		values[i] = float64(c.Count)
		summary.Total += c.Count
		if c.Count < summary.Min {
			summary.Min = c.Count
		}
		if c.Count > summary.Max {
			summary.Max = c.Count
		}
	}

	if len(values) > 1 {
		summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
	} else {
		summary.Mean = values[0]
	}
	return summary
}

// RenderTable renders the summary as a text table.
func RenderTable(s *Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Class", "Samples"})
	for _, c := range s.Classes {
		t.AppendRow(table.Row{c.Mark, c.Name, c.Count})
	}
	t.AppendFooter(table.Row{"", "Total", s.Total})
	t.AppendFooter(table.Row{"", "Mean ± SD", fmt.Sprintf("%.1f ± %.1f", s.Mean, s.StdDev)})
	t.AppendFooter(table.Row{"", "Max/Min", formatImbalance(s.Imbalance())})
	return t.Render()
}

func formatImbalance(ratio float64) string {
	if math.IsInf(ratio, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.1f:1", ratio)
}
