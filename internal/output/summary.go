package output

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/inodb/vibe-codon/internal/annotate"
)

// GeneStat counts the effects recorded against one gene.
type GeneStat struct {
	Gene        string
	Transcripts int
	Effects     int
}

// Summary aggregates the effects of an annotation run per gene.
type Summary struct {
	Variants int
	Skipped  int64
	genes    map[string]*geneCounter
	effects  int
}

type geneCounter struct {
	transcripts map[string]bool
	effects     int
}

// NewSummary builds a summary from the effects collected during a run.
func NewSummary(effects []annotate.Effect, variants int, skipped int64) *Summary {
	s := &Summary{
		Variants: variants,
		Skipped:  skipped,
		genes:    make(map[string]*geneCounter),
	}
	for i := range effects {
		s.Add(&effects[i])
	}
	return s
}

// Add counts one effect.
func (s *Summary) Add(e *annotate.Effect) {
	gene := dash(e.Transcript.GeneName)
	gc, ok := s.genes[gene]
	if !ok {
		gc = &geneCounter{transcripts: make(map[string]bool)}
		s.genes[gene] = gc
	}
	gc.transcripts[e.Transcript.ID] = true
	gc.effects++
	s.effects++
}

// Stats returns per-gene counts ordered by effect count, then gene name.
func (s *Summary) Stats() []GeneStat {
	stats := make([]GeneStat, 0, len(s.genes))
	for gene, gc := range s.genes {
		stats = append(stats, GeneStat{
			Gene:        gene,
			Transcripts: len(gc.transcripts),
			Effects:     gc.effects,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Effects != stats[j].Effects {
			return stats[i].Effects > stats[j].Effects
		}
		return stats[i].Gene < stats[j].Gene
	})

	return stats
}

// Render draws the per-gene table with run totals in the footer.
func (s *Summary) Render() string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Gene", "Transcripts", "Effects"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER})

	for _, stat := range s.Stats() {
		table.Append([]string{stat.Gene, fmt.Sprintf("%d", stat.Transcripts), fmt.Sprintf("%d", stat.Effects)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Variants %d", s.Variants),
		fmt.Sprintf("Skipped %d", s.Skipped),
		fmt.Sprintf("%d", s.effects),
	})

	table.Render()

	return tableBuffer.String()
}
