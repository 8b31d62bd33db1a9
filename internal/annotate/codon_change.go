package annotate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vibe-codon/internal/genome"
)

const (
	codonSize   = 3
	unknownBase = "N"
)

// Precondition and consistency errors returned by ChangeCodon.
var (
	ErrEmptyTranscript     = errors.New("transcript has no exons")
	ErrEmptyCodingSequence = errors.New("transcript has an empty coding sequence")
	ErrPaddingDeficit      = errors.New("codon window overruns coding sequence")
)

// ConsistencyError reports a transcript whose CDS boundaries do not agree
// with the length of its coding sequence.
type ConsistencyError struct {
	TranscriptID string
	Variant      string
	Deficit      int // bases missing at the end of the codon window
	CodingLength int
	CDSStart     int64
	CDSEnd       int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("transcript %s, variant %s: %v: deficit of %d bases (coding sequence %d bp, CDS %d-%d)",
		e.TranscriptID, e.Variant, ErrPaddingDeficit, e.Deficit, e.CodingLength, e.CDSStart, e.CDSEnd)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrPaddingDeficit
}

// CodonChangeResult holds the outcome of a single codon change computation.
type CodonChangeResult struct {
	CDSStart         int64 // Strand-oriented CDS start (genomic)
	CDSEnd           int64 // Strand-oriented CDS end (genomic)
	CodonStartNumber int   // Zero-based index of the first affected codon
	CodonStartIndex  int   // Position of the variant within that codon (0-2)
	CodonsRef        string
	CodonsAlt        string
	Padding          int // Placeholder bases appended to both windows (0-2)

	// ReturnNow is set when the variant lies inside one coding exon, so both
	// windows were read from a single contiguous fragment.
	ReturnNow bool
	// RequireNetCDSChange is set when the alternate window was rebuilt from
	// per-exon net changes (variants spanning more than one base).
	RequireNetCDSChange bool
}

// ChangeCodon computes the codons affected by v on t and records a
// CODON_CHANGE effect in effects.
//
// It returns nil, nil when the variant misses the transcript or its CDS, or
// when the variant maps to no coding bases. A *ConsistencyError is returned
// when the CDS boundaries disagree with the coding sequence; no effect is
// recorded in that case.
func ChangeCodon(v *genome.Variant, t *genome.Transcript, effects *VariantEffects) (*CodonChangeResult, error) {
	if len(t.Exons) == 0 {
		return nil, fmt.Errorf("transcript %s: %w", t.ID, ErrEmptyTranscript)
	}
	if !t.Intersects(&v.Interval) || !t.IsProteinCoding() {
		return nil, nil
	}
	cds := t.CodingSequence()
	if cds == "" {
		return nil, fmt.Errorf("transcript %s: %w", t.ID, ErrEmptyCodingSequence)
	}

	res := &CodonChangeResult{}
	if t.Strand.IsPlus() {
		res.CDSStart, res.CDSEnd = t.CDSStart, t.CDSEnd
	} else {
		res.CDSStart, res.CDSEnd = t.CDSEnd, t.CDSStart
	}

	cdsRange := genome.Interval{SequenceID: t.SequenceID, Start: t.CDSStart, End: t.CDSEnd}
	if !v.Intersects(&cdsRange) {
		return nil, nil
	}

	start, end := cdsOffsets(v, t)
	if end < start {
		return nil, nil
	}
	res.CodonStartNumber = start / codonSize
	res.CodonStartIndex = start % codonSize

	// Round outwards to whole codons.
	start3 := start - start%codonSize
	end3 := end - end%codonSize + codonSize - 1
	if end3 < start3+codonSize-1 {
		end3 = start3 + codonSize - 1
	}

	last := len(cds) - 1
	if end3 > last {
		deficit := end3 - last
		if deficit != 1 && deficit != 2 {
			return nil, &ConsistencyError{
				TranscriptID: t.ID,
				Variant:      v.String(),
				Deficit:      deficit,
				CodingLength: len(cds),
				CDSStart:     t.CDSStart,
				CDSEnd:       t.CDSEnd,
			}
		}
		res.Padding = deficit
		end3 = last
	}

	ref := cds[start3 : end3+1]
	prepend := cds[start3:min(start, end3+1)]
	appendSeq := ""
	if end3 > end {
		appendSeq = cds[end+1 : end3+1]
	}

	res.RequireNetCDSChange = v.Length() > 1
	res.ReturnNow = withinOneCodingExon(v, t)
	alt := prepend + netCDSChange(v, t) + appendSeq

	if res.Padding > 0 {
		pad := strings.Repeat(unknownBase, res.Padding)
		ref += pad
		alt += pad
	}

	res.CodonsRef, res.CodonsAlt, res.CodonStartNumber = SimplifyCodons(ref, alt, res.CodonStartNumber)

	effects.Add(Effect{
		Transcript:         t,
		Variant:            v,
		Type:               EffectCodonChange,
		GenericLowPriority: true,
		CodonNum:           res.CodonStartNumber,
		CodonIndex:         res.CodonStartIndex,
		CodonsRef:          res.CodonsRef,
		CodonsAlt:          res.CodonsAlt,
	})
	return res, nil
}

// cdsOffsets maps the variant's genomic span to CDS offsets. On the minus
// strand the genomic end is the 5' side, so the endpoints swap.
func cdsOffsets(v *genome.Variant, t *genome.Transcript) (start, end int) {
	first, second := v.Start, v.End
	if t.Strand.IsMinus() {
		first, second = v.End, v.Start
	}
	return t.BaseNumberCDS(first, false), t.BaseNumberCDS(second, true)
}

func withinOneCodingExon(v *genome.Variant, t *genome.Transcript) bool {
	for _, ce := range t.CodingExons() {
		if ce.Contains(&v.Interval) {
			return true
		}
	}
	return false
}

// netCDSChange returns the alternate allele as it reads on the coding strand.
// Variants spanning several bases may cross an intron, so the allele is
// projected onto each coding exon and oriented per exon.
func netCDSChange(v *genome.Variant, t *genome.Transcript) string {
	if v.Length() <= 1 {
		return v.NetChangeStrand(t.Strand)
	}
	var sb strings.Builder
	for _, ce := range t.CodingExons() {
		seq := v.NetChange(&ce)
		if ce.Strand.IsMinus() {
			seq = genome.ReverseComplement(seq)
		}
		sb.WriteString(seq)
	}
	return sb.String()
}

// SimplifyCodons strips leading codons shared by ref and alt
// (case-insensitive), advancing codonNum for each one removed.
func SimplifyCodons(ref, alt string, codonNum int) (string, string, int) {
	for len(ref) >= codonSize && len(alt) >= codonSize &&
		strings.EqualFold(ref[:codonSize], alt[:codonSize]) {
		ref = ref[codonSize:]
		alt = alt[codonSize:]
		codonNum++
	}
	return ref, alt, codonNum
}
