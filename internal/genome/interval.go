// Package genome provides the positioned genomic model used for codon change
// computation: intervals, exons, transcripts and variants.
package genome

import "fmt"

// Strand is the orientation of a feature relative to the reference sequence.
type Strand int8

// Strand values.
const (
	StrandPlus  Strand = 1
	StrandMinus Strand = -1
)

// ParseStrand converts a GTF-style strand column ("+" or "-") to a Strand.
// Anything other than "-" is treated as the plus strand.
func ParseStrand(s string) Strand {
	if s == "-" {
		return StrandMinus
	}
	return StrandPlus
}

// IsPlus returns true for the forward strand.
func (s Strand) IsPlus() bool {
	return s != StrandMinus
}

// IsMinus returns true for the reverse strand.
func (s Strand) IsMinus() bool {
	return s == StrandMinus
}

func (s Strand) String() string {
	if s == StrandMinus {
		return "-"
	}
	return "+"
}

// Interval is a one-based, inclusive range on a named sequence.
//
// INVARIANT: Start <= End.
type Interval struct {
	SequenceID string // Chromosome or contig name (e.g., "12")
	Strand     Strand
	Start      int64 // 1-based, inclusive
	End        int64 // 1-based, inclusive

	// Variants attached to this interval by callers. Not safe for
	// concurrent extension.
	Variants []*Variant
}

// NewInterval creates an interval, rejecting inverted coordinates.
func NewInterval(seqID string, strand Strand, start, end int64) (Interval, error) {
	if start > end {
		return Interval{}, fmt.Errorf("invalid interval %s:%d-%d: start after end", seqID, start, end)
	}
	return Interval{SequenceID: seqID, Strand: strand, Start: start, End: end}, nil
}

// Len returns the number of bases covered.
func (i *Interval) Len() int64 {
	return i.End - i.Start + 1
}

// ContainsPos returns true if pos lies within the interval.
func (i *Interval) ContainsPos(pos int64) bool {
	return pos >= i.Start && pos <= i.End
}

// Contains returns true if o lies entirely within the interval.
func (i *Interval) Contains(o *Interval) bool {
	if i.SequenceID != "" && o.SequenceID != "" && i.SequenceID != o.SequenceID {
		return false
	}
	return o.Start >= i.Start && o.End <= i.End
}

// Intersects returns true if the two intervals share at least one base.
// Intervals on different named sequences never intersect; an empty
// SequenceID matches any sequence.
func (i *Interval) Intersects(o *Interval) bool {
	if i.SequenceID != "" && o.SequenceID != "" && i.SequenceID != o.SequenceID {
		return false
	}
	return i.Start <= o.End && o.Start <= i.End
}

// Intersect returns the overlapping part of the two intervals, keeping the
// receiver's sequence and strand. ok is false when they do not overlap.
func (i *Interval) Intersect(o *Interval) (Interval, bool) {
	if !i.Intersects(o) {
		return Interval{}, false
	}
	return Interval{
		SequenceID: i.SequenceID,
		Strand:     i.Strand,
		Start:      max(i.Start, o.Start),
		End:        min(i.End, o.End),
	}, true
}

// AddVariant attaches a variant to the interval.
func (i *Interval) AddVariant(v *Variant) {
	i.Variants = append(i.Variants, v)
}

func (i *Interval) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", i.SequenceID, i.Start, i.End, i.Strand)
}
