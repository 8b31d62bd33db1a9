package genome

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Exon represents a single exon within a transcript.
type Exon struct {
	Interval
	Number   int    // Exon number along the transcript (1-based)
	Sequence string // Plus-strand genomic bases covering [Start, End], empty if not loaded
}

// Transcript represents a specific gene isoform.
//
// A Transcript is shared read-only across many variant evaluations once its
// exons and sequences are in place. The coding sequence is derived on first
// use and cached.
type Transcript struct {
	Interval
	ID       string // Transcript ID (e.g., ENST00000311936)
	GeneID   string // Parent gene ID
	GeneName string // Parent gene symbol
	Biotype  string // Transcript biotype
	CDSStart int64  // CDS start (genomic, 1-based), 0 if non-coding
	CDSEnd   int64  // CDS end (genomic, 1-based), 0 if non-coding
	Exons    []Exon // Exons ordered by genomic start

	once        sync.Once
	cds         string
	codingExons []Interval
}

// NewTranscript creates a transcript from its exons, sorting them by genomic
// start. When the transcript bounds are not set they are derived from the
// exon extremes.
func NewTranscript(id string, iv Interval, exons []Exon, cdsStart, cdsEnd int64) *Transcript {
	t := &Transcript{
		Interval: iv,
		ID:       id,
		CDSStart: cdsStart,
		CDSEnd:   cdsEnd,
		Exons:    exons,
	}
	t.SortExons()
	if t.Start == 0 && t.End == 0 && len(t.Exons) > 0 {
		t.Start = t.Exons[0].Start
		t.End = t.Exons[len(t.Exons)-1].End
	}
	return t
}

// SortExons orders exons by ascending genomic start.
func (t *Transcript) SortExons() {
	sort.Slice(t.Exons, func(i, j int) bool {
		return t.Exons[i].Start < t.Exons[j].Start
	})
}

// IsProteinCoding returns true if the transcript has a coding sequence.
func (t *Transcript) IsProteinCoding() bool {
	return t.CDSStart > 0 && t.CDSEnd > 0
}

// ExonsSortedStrand returns the exons in 5'→3' transcript order: ascending
// genomic start on the plus strand, descending on the minus strand.
func (t *Transcript) ExonsSortedStrand() []*Exon {
	n := len(t.Exons)
	out := make([]*Exon, n)
	for i := range t.Exons {
		if t.Strand.IsMinus() {
			out[n-1-i] = &t.Exons[i]
		} else {
			out[i] = &t.Exons[i]
		}
	}
	return out
}

// CodingExons returns the parts of each exon that fall inside the CDS, in
// transcript order. Exons entirely in UTR are omitted.
func (t *Transcript) CodingExons() []Interval {
	t.build()
	return t.codingExons
}

// CodingSequence returns the concatenated coding sequence in 5'→3' order.
// On the minus strand each exon fragment is reverse complemented. If an exon
// sequence is missing or short, the result is shorter than the CDS span.
func (t *Transcript) CodingSequence() string {
	t.build()
	return t.cds
}

func (t *Transcript) build() {
	t.once.Do(func() {
		if !t.IsProteinCoding() {
			return
		}
		cdsRange := Interval{SequenceID: t.SequenceID, Start: t.CDSStart, End: t.CDSEnd}

		var sb strings.Builder
		for _, e := range t.ExonsSortedStrand() {
			part, ok := e.Intersect(&cdsRange)
			if !ok {
				continue
			}
			if part.Strand == 0 {
				part.Strand = t.Strand
			}
			t.codingExons = append(t.codingExons, part)

			lo := part.Start - e.Start
			hi := part.End - e.Start + 1
			if hi > int64(len(e.Sequence)) {
				hi = int64(len(e.Sequence))
			}
			if lo >= hi {
				continue
			}
			seq := e.Sequence[lo:hi]
			if t.Strand.IsMinus() {
				seq = ReverseComplement(seq)
			}
			sb.WriteString(seq)
		}
		t.cds = strings.ToUpper(sb.String())
	})
}

// BaseNumberCDS maps a genomic position to a zero-based offset into the
// coding sequence.
//
// Positions upstream of the CDS clip to the first coding base and positions
// downstream clip to the last one (strand-relative). An intronic position
// resolves to the next coding base, or to the previous one when
// usePrevBaseIfIntronic is set. A position between the last coding exon and
// the CDS end has no next base and maps one past the coding sequence.
func (t *Transcript) BaseNumberCDS(pos int64, usePrevBaseIfIntronic bool) int {
	last := len(t.CodingSequence()) - 1
	if pos < t.CDSStart {
		if t.Strand.IsPlus() {
			return 0
		}
		return last
	}
	if pos > t.CDSEnd {
		if t.Strand.IsPlus() {
			return last
		}
		return 0
	}

	count := 0
	for _, ce := range t.CodingExons() {
		if ce.ContainsPos(pos) {
			if t.Strand.IsPlus() {
				return count + int(pos-ce.Start)
			}
			return count + int(ce.End-pos)
		}
		before := pos < ce.Start
		if t.Strand.IsMinus() {
			before = pos > ce.End
		}
		if before {
			if usePrevBaseIfIntronic {
				return count - 1
			}
			return count
		}
		count += int(ce.Len())
	}
	// Past the last coding exon but inside a CDS that overruns it.
	if usePrevBaseIfIntronic {
		return count - 1
	}
	return count
}

// Validate reports every structural problem with the transcript.
func (t *Transcript) Validate() error {
	var err error
	if len(t.Exons) == 0 {
		err = multierr.Append(err, errors.New("no exons"))
	}
	if t.Start > t.End {
		err = multierr.Append(err, fmt.Errorf("transcript start %d after end %d", t.Start, t.End))
	}
	if t.IsProteinCoding() && t.CDSStart > t.CDSEnd {
		err = multierr.Append(err, fmt.Errorf("CDS start %d after CDS end %d", t.CDSStart, t.CDSEnd))
	} else if t.IsProteinCoding() && !t.Contains(&Interval{Start: t.CDSStart, End: t.CDSEnd}) {
		err = multierr.Append(err, fmt.Errorf("CDS %d-%d outside transcript %d-%d", t.CDSStart, t.CDSEnd, t.Start, t.End))
	}
	for i := range t.Exons {
		e := &t.Exons[i]
		if e.Start > e.End {
			err = multierr.Append(err, fmt.Errorf("exon %d: start %d after end %d", e.Number, e.Start, e.End))
		}
		if e.Strand != t.Strand {
			err = multierr.Append(err, fmt.Errorf("exon %d: strand %s differs from transcript strand %s", e.Number, e.Strand, t.Strand))
		}
		if e.Sequence != "" && int64(len(e.Sequence)) != e.Len() {
			err = multierr.Append(err, fmt.Errorf("exon %d: sequence length %d, expected %d", e.Number, len(e.Sequence), e.Len()))
		}
		if i > 0 && e.Start <= t.Exons[i-1].End {
			err = multierr.Append(err, fmt.Errorf("exon %d overlaps exon %d", e.Number, t.Exons[i-1].Number))
		}
	}
	if err != nil {
		return fmt.Errorf("transcript %s: %w", t.ID, err)
	}
	return nil
}
