package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/starmap/bvh"
	"github.com/achilleasa/starmap/starmap"
	"github.com/olekukonko/tablewriter"
)

func displayGenerateStats(m *starmap.Starmap) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Class", "Systems", "% of systems"})

	hist := m.Store.ClassHistogram()
	for _, class := range starmap.SortedClasses(hist) {
		table.Append([]string{
			m.Config.Classes[class].Name,
			fmt.Sprintf("%d", hist[class]),
			percent(hist[class], m.Stats.Systems),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", m.Stats.Systems), fmt.Sprintf("%d stars", m.Stats.Stars)})

	table.Render()
	logger.Noticef("generated %d systems (seed %d, %d collisions, %d radius fallbacks, %s)\n%s",
		m.Stats.Systems, m.Config.Seed, m.Stats.Collisions, m.Stats.RadiusFallbacks, m.Stats.Elapsed, buf.String())
}

// percent formats part as a share of total. An empty total yields 0%.
func percent(part, total int) string {
	if total == 0 {
		return "0.0 %"
	}
	return fmt.Sprintf("%02.1f %%", 100*float32(part)/float32(total))
}

type namedStats struct {
	name  string
	stats bvh.Stats
}

func displayIndexStats(indices ...namedStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Index", "Nodes", "Free", "Forks", "Leaves", "Objects", "Max depth"})
	for _, idx := range indices {
		table.Append([]string{
			idx.name,
			fmt.Sprintf("%d", idx.stats.Nodes),
			fmt.Sprintf("%d", idx.stats.Free),
			fmt.Sprintf("%d", idx.stats.Forks),
			fmt.Sprintf("%d", idx.stats.Leaves),
			fmt.Sprintf("%d", idx.stats.Objects),
			fmt.Sprintf("%d", idx.stats.MaxDepth),
		})
	}

	table.Render()
	logger.Noticef("index statistics\n%s", buf.String())
}
