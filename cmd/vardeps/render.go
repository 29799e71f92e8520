package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dusk-indust/vardeps/internal/analysis"
	"github.com/dusk-indust/vardeps/internal/graph"
	"github.com/dusk-indust/vardeps/internal/loader"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTitle(w io.Writer, title string) {
	color.New(color.Bold).Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{
				Left:   tw.Off,
				Right:  tw.Off,
				Top:    tw.Off,
				Bottom: tw.Off,
			},
			Settings: tw.Settings{
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		}),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Fprintln(w)
}

func arrow(names []string) string {
	return strings.Join(names, " -> ")
}

func printLoadReport(w io.Writer, r *loader.Report) {
	printTitle(w, "Load: "+r.Root)
	fmt.Fprintf(w, "Files extracted:  %d\n", len(r.Files))
	fmt.Fprintf(w, "Variables:        %d\n", r.TotalVariables)
	fmt.Fprintf(w, "Dependencies:     %d\n\n", r.TotalEdges)
	if len(r.Failures) == 0 {
		return
	}
	color.New(color.FgYellow).Fprintf(w, "Skipped files (%d):\n", len(r.Failures))
	rows := make([][]string, len(r.Failures))
	for i, f := range r.Failures {
		rows[i] = []string{f.Path, f.Error}
	}
	renderTable(w, []string{"File", "Error"}, rows)
}

func printCycles(w io.Writer, cycles []analysis.Cycle) {
	if len(cycles) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No circular dependencies found.")
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(w, "Found %d circular dependencies\n\n", len(cycles))
	rows := make([][]string, len(cycles))
	for i, c := range cycles {
		kind := "cycle"
		witness := arrow(c.Witness)
		if c.SelfLoop {
			kind = "self-loop"
			witness = c.Witness[0] + " -> " + c.Witness[0]
		}
		rows[i] = []string{strconv.Itoa(i + 1), kind, strings.Join(c.Members, ", "), witness}
	}
	renderTable(w, []string{"#", "Kind", "Members", "Witness"}, rows)
}

func printReach(w io.Writer, title string, r analysis.Reach) {
	printTitle(w, fmt.Sprintf("%s %s", title, r.Variable))
	if r.Total == 0 {
		fmt.Fprintln(w, "None.")
		return
	}
	rows := make([][]string, 0, r.Total)
	for _, name := range r.Direct {
		rows = append(rows, []string{name, "1", "direct"})
	}
	for _, name := range r.Transitive {
		rows = append(rows, []string{name, strconv.Itoa(r.Depths[name]), "transitive"})
	}
	renderTable(w, []string{"Variable", "Depth", "Kind"}, rows)
	fmt.Fprintf(w, "Total: %d (%d direct, %d transitive)\n", r.Total, len(r.Direct), len(r.Transitive))
}

func printPaths(w io.Writer, res analysis.PathResult) {
	printTitle(w, fmt.Sprintf("Paths %s -> %s", res.From, res.To))
	if len(res.Paths) == 0 {
		fmt.Fprintln(w, "No path found.")
	}
	for i, p := range res.Paths {
		fmt.Fprintf(w, "%3d. %s  (%d edges)\n", i+1, arrow(p), len(p)-1)
	}
	if res.Truncated {
		color.New(color.FgYellow).Fprintln(w, "Search stopped at its depth or step limit; longer paths may exist.")
	}
}

func rankedRows(ranked []graph.Ranked) [][]string {
	rows := make([][]string, len(ranked))
	for i, r := range ranked {
		rows[i] = []string{r.Name, strconv.Itoa(r.Count)}
	}
	return rows
}

func printMetrics(w io.Writer, m analysis.Metrics) {
	printTitle(w, "Graph metrics")
	renderTable(w, []string{"Metric", "Value"}, [][]string{
		{"Variables", strconv.Itoa(m.TotalVariables)},
		{"Dependencies", strconv.Itoa(m.TotalDependencies)},
		{"Roots", strconv.Itoa(len(m.Roots))},
		{"Leaves", strconv.Itoa(len(m.Leaves))},
		{"Isolated", strconv.Itoa(len(m.Isolated))},
		{"Components", strconv.Itoa(m.Components)},
		{"Largest component", strconv.Itoa(m.LargestComponent)},
		{"Cycles", strconv.Itoa(m.CycleCount)},
	})
	if len(m.MostDependedOn) > 0 {
		fmt.Fprintln(w, "Most depended on:")
		renderTable(w, []string{"Variable", "Dependents"}, rankedRows(m.MostDependedOn))
	}
	if len(m.MostDependencies) > 0 {
		fmt.Fprintln(w, "Most dependencies:")
		renderTable(w, []string{"Variable", "Reads"}, rankedRows(m.MostDependencies))
	}
	for _, f := range m.Failures {
		color.New(color.FgYellow).Fprintf(w, "warning: %s unavailable: %s\n", f.Metric, f.Error)
	}
}

func printNames(w io.Writer, title string, names []string) {
	printTitle(w, fmt.Sprintf("%s (%d)", title, len(names)))
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
}

func printCriticalPath(w io.Writer, cp analysis.CriticalPath) {
	printTitle(w, "Critical path")
	if len(cp.Path) == 0 {
		fmt.Fprintln(w, "No root-to-leaf chain found.")
	} else {
		fmt.Fprintf(w, "%s\nLength: %d\n", arrow(cp.Path), cp.Length)
	}
	if cp.Approximate {
		msg := "The graph has cycles; this is the longest simple path found, not a guaranteed maximum."
		if cp.Exhausted {
			msg = "The graph has cycles and the search budget ran out; a longer path may exist."
		}
		color.New(color.FgYellow).Fprintln(w, msg)
	}
}

func printQuick(w io.Writer, r *analysis.QuickReport) {
	printMetrics(w, r.Metrics)
	printCycles(w, r.Cycles)
	fmt.Fprintln(w)
	printCriticalPath(w, r.CriticalPath)
}
