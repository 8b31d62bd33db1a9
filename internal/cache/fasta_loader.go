package cache

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/vibe-codon/internal/genome"
)

// FASTALoader loads reference genome sequences and cuts exon sequences out
// of them.
type FASTALoader struct {
	path      string
	only      map[string]bool   // chromosomes to keep, nil keeps all
	sequences map[string][]byte // normalized chromosome -> plus-strand bases
}

// NewFASTALoader creates a new FASTA loader.
func NewFASTALoader(path string) *FASTALoader {
	return &FASTALoader{
		path:      path,
		sequences: make(map[string][]byte),
	}
}

// Restrict limits loading to the given chromosomes. Whole-genome files are
// large, so callers pass the chromosomes they hold transcripts for.
func (l *FASTALoader) Restrict(chroms []string) {
	l.only = make(map[string]bool, len(chroms))
	for _, c := range chroms {
		l.only[genome.NormalizeChrom(c)] = true
	}
}

// Load parses the FASTA file and stores sequences indexed by chromosome.
func (l *FASTALoader) Load() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseFASTA(reader)
}

// parseFASTA parses FASTA content. Headers look like:
// >chr12 AC:CM000674.2 gi:568336012 LN:133275309 rl:Chromosome
// >12 dna:chromosome chromosome:GRCh38:12:1:133275309:1 REF
func (l *FASTALoader) parseFASTA(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max line

	var currentID string
	var keep bool
	var currentSeq bytes.Buffer

	flush := func() {
		if currentID != "" && keep && currentSeq.Len() > 0 {
			seq := make([]byte, currentSeq.Len())
			copy(seq, currentSeq.Bytes())
			l.sequences[currentID] = seq
		}
		currentSeq.Reset()
	}

	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) > 0 && line[0] == '>' {
			flush()
			currentID = parseHeader(string(line))
			keep = l.only == nil || l.only[currentID]
			continue
		}
		if keep {
			currentSeq.Write(bytes.TrimSpace(line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan FASTA: %w", err)
	}

	return nil
}

// parseHeader extracts the normalized sequence name from a FASTA header.
func parseHeader(header string) string {
	header = strings.TrimPrefix(header, ">")
	if idx := strings.IndexAny(header, " \t|"); idx != -1 {
		header = header[:idx]
	}
	return genome.NormalizeChrom(header)
}

// Subsequence returns the plus-strand bases of chrom between 1-based
// inclusive start and end.
func (l *FASTALoader) Subsequence(chrom string, start, end int64) (string, error) {
	seq, ok := l.sequences[genome.NormalizeChrom(chrom)]
	if !ok {
		return "", fmt.Errorf("sequence %s not loaded", chrom)
	}
	if start < 1 || start > end || end > int64(len(seq)) {
		return "", fmt.Errorf("range %s:%d-%d outside sequence of length %d", chrom, start, end, len(seq))
	}
	return string(seq[start-1 : end]), nil
}

// AttachSequences fills Exon.Sequence for every transcript in the cache
// whose chromosome is loaded. It returns the number of exons filled and the
// number left empty.
func (l *FASTALoader) AttachSequences(c *Cache) (filled, missing int) {
	for _, chrom := range c.Chromosomes() {
		for _, t := range c.FindTranscriptsByChrom(chrom) {
			for i := range t.Exons {
				e := &t.Exons[i]
				seq, err := l.Subsequence(chrom, e.Start, e.End)
				if err != nil {
					missing++
					continue
				}
				e.Sequence = seq
				filled++
			}
		}
	}
	return filled, missing
}

// SequenceCount returns the number of loaded sequences.
func (l *FASTALoader) SequenceCount() int {
	return len(l.sequences)
}

// HasSequence checks if a sequence exists for the given chromosome.
func (l *FASTALoader) HasSequence(chrom string) bool {
	_, ok := l.sequences[genome.NormalizeChrom(chrom)]
	return ok
}
