package cdmap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Stats renders per-section record counts and on-disk sizes.
func (m *Map) Stats() string {
	g := &m.Geometry
	counts := [SectionCount]int{
		SectionEntities:        len(m.Entities),
		SectionEntityData:      len(m.EntityData),
		SectionEntityKeyValues: len(m.KeyValues),
		SectionModels:          len(m.Models),
		SectionNodes:           len(g.Nodes),
		SectionBrushes:         len(g.Brushes),
		SectionBrushIndices:    len(g.BrushIndices),
		SectionPlanes:          len(g.Planes),
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Records", "Size"})

	total := 0
	for s, count := range counts {
		size := count * recordSize[s]
		total += size
		table.Append([]string{Section(s).String(), fmt.Sprintf("%d", count), fmtSize(size)})
	}
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(total), " ")})

	table.Render()
	return buf.String()
}

func fmtSize(n int) string {
	if n < 1e3 {
		return fmt.Sprintf("%3d bytes", n)
	} else if n < 1e6 {
		return fmt.Sprintf("%3.1f kb", float64(n)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float64(n)/1e6)
}
