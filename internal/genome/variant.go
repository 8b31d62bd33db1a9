package genome

import (
	"errors"
	"fmt"
	"strings"
)

// Variant is a genomic edit replacing the reference allele, which spans the
// embedded interval, with the alternate allele.
//
// Insertions and deletions carry their anchor base the way VCF does
// (REF=A ALT=ATTT), so every variant replaces at least one reference base.
type Variant struct {
	Interval
	ID  string // Variant identifier (e.g., rs ID)
	Ref string // Reference allele, plus strand
	Alt string // Alternate allele, plus strand
}

// ErrEmptyRef is returned for variants without a reference allele.
var ErrEmptyRef = errors.New("reference allele must not be empty")

// NewVariant creates a variant at a 1-based position. The interval spans the
// reference allele.
func NewVariant(seqID string, pos int64, ref, alt string) (*Variant, error) {
	if ref == "" {
		return nil, fmt.Errorf("variant %s:%d: %w", seqID, pos, ErrEmptyRef)
	}
	if pos < 1 {
		return nil, fmt.Errorf("variant %s:%d: position must be 1-based", seqID, pos)
	}
	return &Variant{
		Interval: Interval{
			SequenceID: seqID,
			Strand:     StrandPlus,
			Start:      pos,
			End:        pos + int64(len(ref)) - 1,
		},
		Ref: strings.ToUpper(ref),
		Alt: strings.ToUpper(alt),
	}, nil
}

// Length returns the number of reference bases spanned. Values above 1 mark
// multi-nucleotide variants.
func (v *Variant) Length() int64 {
	return v.Len()
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// Type classifies the variant the way MAF Variant_Type does: SNP, DNP, TNP,
// ONP for equal-length substitutions, INS or DEL otherwise.
func (v *Variant) Type() string {
	if v.IsIndel() {
		if v.IsInsertion() {
			return "INS"
		}
		return "DEL"
	}
	if v.IsSNV() {
		return "SNP"
	}
	switch len(v.Ref) {
	case 2:
		return "DNP"
	case 3:
		return "TNP"
	}
	return "ONP"
}

// NetChange returns the part of the alternate allele that replaces the
// reference bases inside anchor, in plus-strand orientation.
//
// Alternate bases are aligned to reference bases from the left; any surplus
// (insertion) belongs to the anchor holding the last reference base, and a
// shortfall (deletion) empties the anchors covering the trailing bases.
func (v *Variant) NetChange(anchor *Interval) string {
	if !v.Intersects(anchor) {
		return ""
	}
	n := int64(len(v.Alt))
	lo := max(anchor.Start-v.Start, 0)
	hi := n
	if anchor.End < v.End {
		hi = anchor.End - v.Start + 1
	}
	lo = min(lo, n)
	hi = min(hi, n)
	if lo >= hi {
		return ""
	}
	return v.Alt[lo:hi]
}

// NetChangeStrand returns the whole alternate allele oriented to strand.
func (v *Variant) NetChangeStrand(s Strand) string {
	if s.IsMinus() {
		return ReverseComplement(v.Alt)
	}
	return v.Alt
}

func (v *Variant) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", v.SequenceID, v.Start, v.Ref, v.Alt)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}
