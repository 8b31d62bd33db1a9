package cache

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Chromosome 1 holds a plus-strand transcript (exons 3-10 and 21-30, CDS
// 5-26 reading ATGAAA|CCCTAA). Chromosome 2 holds a minus-strand one (exon
// 1-12, CDS reading ATGAAACCCTAA on the reverse strand).
const testGenomeFASTA = `>chr1 AC:CM000663.2 LN:40
GGCCATGAAAGTAAGT
TTAGCCCTAAGGGGTT
TTTTTTTT
>chr2 AC:CM000664.2 LN:16
TTAGGGTTTCATAAAA
>chr9
ACGT
`

const testGenomeGTF = `chr1	test	transcript	3	30	.	+	.	gene_id "G1"; transcript_id "TXP.1"; gene_name "PLUS"; transcript_type "protein_coding";
chr1	test	exon	3	10	.	+	.	gene_id "G1"; transcript_id "TXP.1"; exon_number "1";
chr1	test	exon	21	30	.	+	.	gene_id "G1"; transcript_id "TXP.1"; exon_number "2";
chr1	test	CDS	5	10	.	+	0	gene_id "G1"; transcript_id "TXP.1"; exon_number "1";
chr1	test	CDS	21	23	.	+	0	gene_id "G1"; transcript_id "TXP.1"; exon_number "2";
chr1	test	start_codon	5	7	.	+	0	gene_id "G1"; transcript_id "TXP.1";
chr1	test	stop_codon	24	26	.	+	0	gene_id "G1"; transcript_id "TXP.1";
chr2	test	transcript	1	12	.	-	.	gene_id "G2"; transcript_id "TXM.1"; gene_name "MINUS"; transcript_type "protein_coding";
chr2	test	exon	1	12	.	-	.	gene_id "G2"; transcript_id "TXM.1"; exon_number "1";
chr2	test	CDS	4	12	.	-	0	gene_id "G2"; transcript_id "TXM.1"; exon_number "1";
chr2	test	start_codon	10	12	.	-	0	gene_id "G2"; transcript_id "TXM.1";
chr2	test	stop_codon	1	3	.	-	0	gene_id "G2"; transcript_id "TXM.1";
chr3	test	transcript	1	12	.	+	.	gene_id "G3"; transcript_id "TXN.1"; gene_name "NOSEQ"; transcript_type "protein_coding";
chr3	test	exon	1	12	.	+	.	gene_id "G3"; transcript_id "TXN.1"; exon_number "1";
`

func TestParseHeader(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{">chr12 AC:CM000674.2 gi:568336012 LN:133275309", "12"},
		{">12 dna:chromosome chromosome:GRCh38:12:1:133275309:1 REF", "12"},
		{">chrX", "X"},
		{">MT|mitochondrion", "MT"},
		{">chr1\tdescription", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHeader(tt.header))
		})
	}
}

func TestFASTALoader_ParseFASTA(t *testing.T) {
	loader := NewFASTALoader("")
	require.NoError(t, loader.parseFASTA(strings.NewReader(testGenomeFASTA)))

	assert.Equal(t, 3, loader.SequenceCount())
	assert.True(t, loader.HasSequence("chr1"))
	assert.True(t, loader.HasSequence("2"))
	assert.False(t, loader.HasSequence("3"))

	seq, err := loader.Subsequence("1", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, "ATGAAA", seq, "lines joined without newlines")

	seq, err = loader.Subsequence("1", 15, 22)
	require.NoError(t, err)
	assert.Equal(t, "GTTTAGCC", seq, "across a line break")

	_, err = loader.Subsequence("1", 35, 41)
	assert.Error(t, err, "past the end")
	_, err = loader.Subsequence("3", 1, 2)
	assert.Error(t, err, "unknown chromosome")
}

func TestFASTALoader_Restrict(t *testing.T) {
	loader := NewFASTALoader("")
	loader.Restrict([]string{"chr2"})
	require.NoError(t, loader.parseFASTA(strings.NewReader(testGenomeFASTA)))

	assert.Equal(t, 1, loader.SequenceCount())
	assert.True(t, loader.HasSequence("2"))
	assert.False(t, loader.HasSequence("1"))
}

func TestFASTALoader_LoadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testGenomeFASTA))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	loader := NewFASTALoader(path)
	require.NoError(t, loader.Load())
	assert.Equal(t, 3, loader.SequenceCount())
}

func TestFASTALoader_AttachSequences(t *testing.T) {
	transcripts, err := NewGTFLoader("").parseGTF(strings.NewReader(testGenomeGTF), "")
	require.NoError(t, err)
	c := New()
	for _, tr := range transcripts {
		c.AddTranscript(tr)
	}

	loader := NewFASTALoader("")
	require.NoError(t, loader.parseFASTA(strings.NewReader(testGenomeFASTA)))

	filled, missing := loader.AttachSequences(c)
	assert.Equal(t, 3, filled)
	assert.Equal(t, 1, missing, "chromosome 3 has no sequence")

	plus := c.GetTranscript("TXP")
	require.NotNil(t, plus)
	assert.Equal(t, "CCATGAAA", plus.Exons[0].Sequence)
	assert.Equal(t, "ATGAAACCCTAA", plus.CodingSequence())

	minus := c.GetTranscript("TXM")
	require.NotNil(t, minus)
	assert.Equal(t, int64(1), minus.CDSStart)
	assert.Equal(t, int64(12), minus.CDSEnd)
	assert.Equal(t, "ATGAAACCCTAA", minus.CodingSequence())
	assert.NoError(t, minus.Validate())

	assert.Empty(t, c.GetTranscript("TXN").Exons[0].Sequence)
}

func TestFASTALoader_MissingFile(t *testing.T) {
	err := NewFASTALoader(filepath.Join(t.TempDir(), "missing.fa")).Load()
	assert.ErrorContains(t, err, "open FASTA file")
}
