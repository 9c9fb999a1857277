package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/sozercan/idea-mapper/apimodels"
)

const (
	formatAuto  = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

func resolveFormat(format string, out io.Writer) string {
	switch strings.ToLower(format) {
	case formatJSON:
		return formatJSON
	case formatTable:
		return formatTable
	}
	if isTerminal(out) {
		return formatTable
	}
	return formatJSON
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderAnalysis prints each accordion section as its own table.
func renderAnalysis(a *apimodels.Analysis) string {
	var sections []string

	mainIdeas := make([][]string, 0, len(a.CoreIdeas.MainIdeas))
	for _, item := range a.CoreIdeas.MainIdeas {
		mainIdeas = append(mainIdeas, []string{item.ID, item.Content})
	}
	sections = append(sections, renderSection("Main ideas", []string{"ID", "Content"}, mainIdeas))

	supporting := make([][]string, 0, len(a.CoreIdeas.SupportingIdeas))
	for _, item := range a.CoreIdeas.SupportingIdeas {
		supporting = append(supporting, []string{item.MainIdeaID, item.Content})
	}
	sections = append(sections, renderSection("Supporting ideas", []string{"Main idea", "Content"}, supporting))

	contextual := make([][]string, 0, len(a.CoreIdeas.ContextualElements))
	for _, item := range a.CoreIdeas.ContextualElements {
		contextual = append(contextual, []string{item.ID, item.Content})
	}
	sections = append(sections, renderSection("Contextual elements", []string{"ID", "Content"}, contextual))

	counter := make([][]string, 0, len(a.CoreIdeas.Counterpoints))
	for _, item := range a.CoreIdeas.Counterpoints {
		counter = append(counter, []string{item.MainIdeaID, item.Content})
	}
	sections = append(sections, renderSection("Counterpoints", []string{"Main idea", "Content"}, counter))

	between := make([][]string, 0, len(a.CoreIdeas.RelationshipsBetweenMainIdeas))
	for _, item := range a.CoreIdeas.RelationshipsBetweenMainIdeas {
		between = append(between, []string{item.Idea1, item.Type, item.Idea2, item.Description})
	}
	sections = append(sections, renderSection("Relationships between main ideas", []string{"Idea", "Type", "Idea", "Description"}, between))

	rels := make([][]string, 0, len(a.Relationships.Items))
	for _, item := range a.Relationships.Items {
		rels = append(rels, []string{item.Type, item.Description})
	}
	sections = append(sections, renderSection("Relationships", []string{"Type", "Description"}, rels))

	analogies := make([][]string, 0, len(a.Analogies.Items))
	for _, item := range a.Analogies.Items {
		analogies = append(analogies, []string{item.ID, item.Comparison, item.Support, item.Implications})
	}
	sections = append(sections, renderSection("Analogies", []string{"ID", "Comparison", "Support", "Implications"}, analogies))

	insights := [][]string{
		{"Evolution", insightText(a.Insights.Evolution)},
		{"Key takeaways", insightText(a.Insights.KeyTakeaways)},
		{"Tradeoffs", insightText(a.Insights.Tradeoffs)},
		{"Broader themes", insightText(a.Insights.BroaderThemes)},
	}
	sections = append(sections, renderSection("Insights", []string{"Aspect", "Detail"}, insights))

	return strings.Join(sections, "\n\n")
}

func renderSection(title string, headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	if len(rows) == 0 {
		empty := make(table.Row, len(headers))
		empty[0] = "(none)"
		tw.AppendRow(empty)
	}

	return tw.Render()
}

// insightText shows string insights without quotes and anything else as JSON.
func insightText(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
