package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Plus strand, two exons, CDS ATGAAACC|CTAA split by a 100 bp intron.
func createPlusTranscript() *Transcript {
	exons := []Exon{
		{Interval: Interval{SequenceID: "1", Strand: StrandPlus, Start: 1111, End: 1120}, Number: 2, Sequence: "CTAAGGGGGG"},
		{Interval: Interval{SequenceID: "1", Strand: StrandPlus, Start: 1001, End: 1010}, Number: 1, Sequence: "CCATGAAACC"},
	}
	t := NewTranscript("TX_PLUS", Interval{SequenceID: "1", Strand: StrandPlus}, exons, 1003, 1114)
	return t
}

// Minus strand, single exon whose plus-strand bases reverse complement to
// ATGAAACCCTAA.
func createMinusTranscript() *Transcript {
	exons := []Exon{
		{Interval: Interval{SequenceID: "1", Strand: StrandMinus, Start: 2001, End: 2012}, Number: 1, Sequence: "TTAGGGTTTCAT"},
	}
	return NewTranscript("TX_MINUS", Interval{SequenceID: "1", Strand: StrandMinus}, exons, 2001, 2012)
}

func TestNewTranscript_SortsExonsAndDerivesBounds(t *testing.T) {
	tx := createPlusTranscript()

	require.Len(t, tx.Exons, 2)
	assert.Equal(t, int64(1001), tx.Exons[0].Start)
	assert.Equal(t, int64(1001), tx.Start)
	assert.Equal(t, int64(1120), tx.End)
	assert.True(t, tx.IsProteinCoding())
}

func TestTranscript_ExonsSortedStrand(t *testing.T) {
	tx := createPlusTranscript()
	exons := tx.ExonsSortedStrand()
	assert.Equal(t, 1, exons[0].Number)

	tx.Strand = StrandMinus
	exons = tx.ExonsSortedStrand()
	assert.Equal(t, 2, exons[0].Number, "minus strand starts at the highest exon")
}

func TestTranscript_CodingSequence(t *testing.T) {
	plus := createPlusTranscript()
	assert.Equal(t, "ATGAAACCCTAA", plus.CodingSequence())

	coding := plus.CodingExons()
	require.Len(t, coding, 2)
	assert.Equal(t, int64(1003), coding[0].Start)
	assert.Equal(t, int64(1010), coding[0].End)
	assert.Equal(t, int64(1111), coding[1].Start)
	assert.Equal(t, int64(1114), coding[1].End)

	minus := createMinusTranscript()
	assert.Equal(t, "ATGAAACCCTAA", minus.CodingSequence())
	require.Len(t, minus.CodingExons(), 1)
	assert.Equal(t, StrandMinus, minus.CodingExons()[0].Strand)
}

func TestTranscript_CodingSequence_InheritsStrand(t *testing.T) {
	exons := []Exon{
		{Interval: Interval{SequenceID: "1", Start: 2001, End: 2012}, Sequence: "TTAGGGTTTCAT"},
	}
	tx := NewTranscript("TX", Interval{SequenceID: "1", Strand: StrandMinus}, exons, 2001, 2012)

	require.Len(t, tx.CodingExons(), 1)
	assert.Equal(t, StrandMinus, tx.CodingExons()[0].Strand)
}

func TestTranscript_CodingSequence_NonCoding(t *testing.T) {
	tx := createPlusTranscript()
	tx.CDSStart, tx.CDSEnd = 0, 0
	assert.Empty(t, tx.CodingSequence())
	assert.Empty(t, tx.CodingExons())
}

func TestTranscript_BaseNumberCDS_Plus(t *testing.T) {
	tx := createPlusTranscript()

	tests := []struct {
		name    string
		pos     int64
		usePrev bool
		want    int
	}{
		{"CDS start", 1003, false, 0},
		{"last base exon 1", 1010, false, 7},
		{"first base exon 2", 1111, false, 8},
		{"CDS end", 1114, false, 11},
		{"intron next base", 1050, false, 8},
		{"intron previous base", 1050, true, 7},
		{"5' UTR clips to first", 1001, false, 0},
		{"3' UTR clips to last", 1118, false, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tx.BaseNumberCDS(tt.pos, tt.usePrev))
		})
	}
}

func TestTranscript_BaseNumberCDS_Minus(t *testing.T) {
	tx := createMinusTranscript()

	assert.Equal(t, 0, tx.BaseNumberCDS(2012, false))
	assert.Equal(t, 11, tx.BaseNumberCDS(2001, false))
	assert.Equal(t, 3, tx.BaseNumberCDS(2009, false))
	assert.Equal(t, 11, tx.BaseNumberCDS(1990, false), "below CDS is 3' on minus")
	assert.Equal(t, 0, tx.BaseNumberCDS(2100, false), "above CDS is 5' on minus")
}

func TestTranscript_BaseNumberCDS_MinusIntron(t *testing.T) {
	exons := []Exon{
		{Interval: Interval{SequenceID: "1", Strand: StrandMinus, Start: 100, End: 105}, Sequence: "AAAAAA"},
		{Interval: Interval{SequenceID: "1", Strand: StrandMinus, Start: 200, End: 205}, Sequence: "CCCCCC"},
	}
	tx := NewTranscript("TX", Interval{SequenceID: "1", Strand: StrandMinus}, exons, 100, 205)

	assert.Equal(t, "GGGGGGTTTTTT", tx.CodingSequence())
	assert.Equal(t, 5, tx.BaseNumberCDS(200, false))
	assert.Equal(t, 6, tx.BaseNumberCDS(105, false))
	assert.Equal(t, 6, tx.BaseNumberCDS(150, false), "intron resolves to next base downstream")
	assert.Equal(t, 5, tx.BaseNumberCDS(150, true), "intron resolves to previous base upstream")
}

func TestTranscript_BaseNumberCDS_CDSPastLastExon(t *testing.T) {
	exons := []Exon{{Interval: Interval{SequenceID: "1", Strand: StrandPlus, Start: 1001, End: 1012}, Sequence: "ATGAAACCCTAA"}}
	tx := NewTranscript("TX", Interval{SequenceID: "1", Strand: StrandPlus, Start: 1001, End: 1020}, exons, 1001, 1020)

	assert.Equal(t, 12, tx.BaseNumberCDS(1015, false), "no next coding base")
	assert.Equal(t, 11, tx.BaseNumberCDS(1015, true))
	assert.Equal(t, 11, tx.BaseNumberCDS(1025, false), "past the CDS clips to the last base")
}

func TestTranscript_Validate(t *testing.T) {
	assert.NoError(t, createPlusTranscript().Validate())
	assert.NoError(t, createMinusTranscript().Validate())

	bad := NewTranscript("TX_BAD", Interval{SequenceID: "1", Strand: StrandPlus}, []Exon{
		{Interval: Interval{SequenceID: "1", Strand: StrandPlus, Start: 100, End: 200}, Number: 1, Sequence: "ACGT"},
		{Interval: Interval{SequenceID: "1", Strand: StrandMinus, Start: 150, End: 300}, Number: 2},
	}, 120, 110)

	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "TX_BAD")
	assert.ErrorContains(t, err, "CDS start 120 after CDS end 110")
	assert.ErrorContains(t, err, "exon 1: sequence length 4")
	assert.ErrorContains(t, err, "exon 2: strand -")
	assert.ErrorContains(t, err, "exon 2 overlaps exon 1")

	outside := createPlusTranscript()
	outside.CDSEnd = 1200
	assert.ErrorContains(t, outside.Validate(), "CDS 1003-1200 outside transcript 1001-1120")

	empty := &Transcript{ID: "TX_EMPTY"}
	assert.ErrorContains(t, empty.Validate(), "no exons")
}
