package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Chromosome 1 holds transcript TXP of gene PLUS: exons 3-10 and 21-30,
// CDS 5-26 reading ATGAAA|CCCTAA.
const testFASTA = `>chr1
GGCCATGAAAGTAAGT
TTAGCCCTAAGGGGTT
TTTTTTTT
`

const testGTF = `chr1	test	transcript	3	30	.	+	.	gene_id "G1"; transcript_id "TXP.1"; gene_name "PLUS"; transcript_type "protein_coding";
chr1	test	exon	3	10	.	+	.	gene_id "G1"; transcript_id "TXP.1"; exon_number "1";
chr1	test	exon	21	30	.	+	.	gene_id "G1"; transcript_id "TXP.1"; exon_number "2";
chr1	test	CDS	5	10	.	+	0	gene_id "G1"; transcript_id "TXP.1"; exon_number "1";
chr1	test	CDS	21	23	.	+	0	gene_id "G1"; transcript_id "TXP.1"; exon_number "2";
chr1	test	start_codon	5	7	.	+	0	gene_id "G1"; transcript_id "TXP.1";
chr1	test	stop_codon	24	26	.	+	0	gene_id "G1"; transcript_id "TXP.1";
`

const testVCF = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr1	8	rs1	A	G	.	PASS	.
chr1	25	.	A	T	.	PASS	.
chr5	100	.	A	C	.	PASS	.
`

type fixture struct {
	dir   string
	gtf   string
	fasta string
	vcf   string
}

func writeFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:   dir,
		gtf:   filepath.Join(dir, "annotation.gtf"),
		fasta: filepath.Join(dir, "genome.fa"),
		vcf:   filepath.Join(dir, "input.vcf"),
	}
	require.NoError(t, os.WriteFile(f.gtf, []byte(testGTF), 0o644))
	require.NoError(t, os.WriteFile(f.fasta, []byte(testFASTA), 0o644))
	require.NoError(t, os.WriteFile(f.vcf, []byte(testVCF), 0o644))
	return f
}

// executeCommand runs the CLI with fresh global configuration and an empty
// home directory.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	viper.Reset()
	setConfigDefaults()
	t.Cleanup(func() {
		viper.Reset()
		setConfigDefaults()
	})

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func dataLines(out string) []string {
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "#") {
		lines = lines[1:]
	}
	return lines
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "vibe-codon", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)

	for _, name := range []string{"annotate", "codon", "query", "download", "config", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	stdout, _, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "vibe-codon computes")
	assert.Contains(t, stdout, "annotate")
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vibe-codon version dev")
	assert.Contains(t, stdout, "go version")
}

func TestAnnotateCmd(t *testing.T) {
	f := writeFixture(t)

	stdout, stderr, err := executeCommand(t, "annotate",
		"--gtf", f.gtf, "--fasta", f.fasta, "--workers", "2", "--summary", f.vcf)
	require.NoError(t, err, stderr)

	lines := dataLines(stdout)
	require.Len(t, lines, 2, "chr5 variant overlaps no transcript")

	first := strings.Split(lines[0], "\t")
	require.Len(t, first, 13)
	assert.Equal(t, "rs1", first[0])
	assert.Equal(t, "1:8", first[1])
	assert.Equal(t, "PLUS", first[3])
	assert.Equal(t, "TXP", first[4])
	assert.Equal(t, "2", first[7])
	assert.Equal(t, "K/E", first[9])
	assert.Equal(t, "Aaa/Gaa", first[10])
	assert.Equal(t, "CODON_CHANGE", first[11])
	assert.Equal(t, "SNP", first[12])

	second := strings.Split(lines[1], "\t")
	assert.Equal(t, "1:25:A:T", second[0])
	assert.Equal(t, "4", second[7])
	assert.Equal(t, "1", second[8])
	assert.Equal(t, "tAa/tTa", second[10])

	assert.Contains(t, stderr, "annotation finished")
	assert.Contains(t, strings.ToUpper(stderr), "VARIANTS 3")
}

func TestAnnotateCmd_OutputFileAndStore(t *testing.T) {
	f := writeFixture(t)
	outPath := filepath.Join(f.dir, "effects.tsv")
	dbPath := filepath.Join(f.dir, "effects.duckdb")

	_, stderr, err := executeCommand(t, "annotate",
		"--gtf", f.gtf, "--fasta", f.fasta, "--db", dbPath, "-o", outPath, f.vcf)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "stored effects")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Len(t, dataLines(string(data)), 2)

	stdout, stderr, err := executeCommand(t, "query", "--db", dbPath, "--gene", "PLUS")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "1:8:A:G")
	assert.Contains(t, stdout, "1:25:A:T")
	assert.Contains(t, stdout, "Aaa/Gaa")

	stdout, stderr, err = executeCommand(t, "query", "--db", dbPath, "--variant", "chr1:25:A:T")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "tAa/tTa")
	assert.NotContains(t, stdout, "1:8:A:G")
}

func TestAnnotateCmd_TranscriptCache(t *testing.T) {
	f := writeFixture(t)
	cacheDir := filepath.Join(f.dir, "cache")

	first, stderr, err := executeCommand(t, "annotate",
		"--gtf", f.gtf, "--fasta", f.fasta, "--cache-dir", cacheDir, f.vcf)
	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(cacheDir, "transcripts.gob"))

	second, stderr, err := executeCommand(t, "annotate",
		"--gtf", f.gtf, "--fasta", f.fasta, "--cache-dir", cacheDir, f.vcf)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "loaded transcripts from cache")
	assert.Equal(t, first, second)
}

func TestAnnotateCmd_Errors(t *testing.T) {
	f := writeFixture(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing input", []string{"annotate", "--gtf", f.gtf, filepath.Join(f.dir, "missing.vcf")}, "open vcf file"},
		{"unknown format", []string{"annotate", "--gtf", f.gtf, "-f", "maf", f.vcf}, "unknown output format"},
		{"no annotation", []string{"annotate", f.vcf}, "no GTF configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCodonCmd(t *testing.T) {
	f := writeFixture(t)

	stdout, stderr, err := executeCommand(t, "codon", "--gtf", f.gtf, "--fasta", f.fasta, "chr1:8:A:G")
	require.NoError(t, err, stderr)

	lines := dataLines(stdout)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "PLUS\tTXP")
	assert.Contains(t, lines[0], "Aaa/Gaa")

	_, _, err = executeCommand(t, "codon", "--gtf", f.gtf, "--fasta", f.fasta, "--gene", "NOPE", "1:8:A:G")
	assert.ErrorContains(t, err, `gene "NOPE" not found`)
}

func TestParseVariantArg(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		chrom   string
		start   int64
		end     int64
		wantErr bool
	}{
		{"snv", "12:25245350:C:A", "12", 25245350, 25245350, false},
		{"chr prefix", "chr7:140753336:a:t", "7", 140753336, 140753336, false},
		{"deletion", "17:100:CAG:C", "17", 100, 102, false},
		{"dash separated", "12-25245350-C>A", "12", 25245350, 25245350, false},
		{"whole allele deleted", "17:100:CA:", "17", 100, 101, false},
		{"too few parts", "12:100:C", "", 0, 0, true},
		{"bad position", "12:abc:C:A", "", 0, 0, true},
		{"empty ref", "12:100::A", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseVariantArg(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.chrom, v.SequenceID)
			assert.Equal(t, tt.start, v.Start)
			assert.Equal(t, tt.end, v.End)
		})
	}
}

func TestQueryCmd_RequiresDB(t *testing.T) {
	_, _, err := executeCommand(t, "query", "--gene", "KRAS")
	assert.ErrorContains(t, err, "no database configured")

	_, _, err = executeCommand(t, "query", "--db", filepath.Join(t.TempDir(), "x.duckdb"))
	assert.Error(t, err, "one of gene, transcript or variant is required")
}
