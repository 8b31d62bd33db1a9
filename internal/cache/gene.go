package cache

import "github.com/inodb/vibe-codon/internal/genome"

// Gene groups the transcripts sharing a gene symbol. Its interval spans all
// of them.
type Gene struct {
	genome.Interval
	ID          string // Gene identifier (e.g., ENSG00000133703)
	Name        string // Gene symbol (e.g., KRAS)
	Transcripts []*genome.Transcript
}

func (g *Gene) addTranscript(t *genome.Transcript) {
	g.Transcripts = append(g.Transcripts, t)
	g.Start = min(g.Start, t.Start)
	g.End = max(g.End, t.End)
}

// CodingTranscripts returns the gene's protein-coding transcripts.
func (g *Gene) CodingTranscripts() []*genome.Transcript {
	var out []*genome.Transcript
	for _, t := range g.Transcripts {
		if t.IsProteinCoding() {
			out = append(out, t)
		}
	}
	return out
}
