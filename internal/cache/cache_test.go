package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-codon/internal/genome"
)

func TestCache_AddAndFind(t *testing.T) {
	c := New()
	a := span("A", 100, 200)
	a.GeneName = "GENE1"
	b := span("B", 150, 400)
	b.GeneName = "GENE1"
	b.CDSStart, b.CDSEnd = 160, 300
	other := &genome.Transcript{
		Interval: genome.Interval{SequenceID: "2", Start: 100, End: 200},
		ID:       "C",
	}

	c.AddTranscript(a)
	c.AddTranscript(b)
	c.AddTranscript(other)

	assert.Equal(t, 3, c.TranscriptCount())
	assert.Equal(t, []string{"1", "2"}, c.Chromosomes())
	assert.Equal(t, []string{"A", "B"}, ids(c.FindTranscripts("1", 175, 175)))
	assert.Equal(t, []string{"B"}, ids(c.FindTranscripts("1", 300, 500)))
	assert.Empty(t, c.FindTranscripts("3", 100, 200), "unknown chromosome")
	assert.Len(t, c.FindTranscriptsByChrom("1"), 2)

	assert.Same(t, b, c.GetTranscript("B"))
	assert.Nil(t, c.GetTranscript("missing"))

	gene := c.GetGene("GENE1")
	require.NotNil(t, gene)
	assert.Equal(t, int64(100), gene.Start)
	assert.Equal(t, int64(400), gene.End)
	assert.Len(t, gene.Transcripts, 2)
	assert.Equal(t, []string{"B"}, ids(gene.CodingTranscripts()))
}

func TestCache_IndexRebuiltAfterAdd(t *testing.T) {
	c := New()
	c.AddTranscript(span("A", 100, 200))
	assert.Len(t, c.FindTranscripts("1", 150, 150), 1)

	c.AddTranscript(span("B", 120, 180))
	assert.Len(t, c.FindTranscripts("1", 150, 150), 2, "new transcript visible")
}

func TestCache_ConcurrentLookup(t *testing.T) {
	c := New()
	for i := range 100 {
		c.AddTranscript(span("T", int64(i*100+1), int64(i*100+150)))
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 99 {
				pos := int64(i*100 + 120 + w)
				assert.Len(t, c.FindTranscripts("1", pos, pos), 2)
			}
		}()
	}
	wg.Wait()
}

func TestGENCODELoader_Load(t *testing.T) {
	dir := t.TempDir()
	gtfPath := filepath.Join(dir, "annotation.gtf")
	fastaPath := filepath.Join(dir, "genome.fa")
	require.NoError(t, os.WriteFile(gtfPath, []byte(testGenomeGTF), 0o644))
	require.NoError(t, os.WriteFile(fastaPath, []byte(testGenomeFASTA), 0o644))

	core, logs := observer.New(zap.InfoLevel)
	loader := NewGENCODELoader(gtfPath, fastaPath)
	loader.SetLogger(zap.New(core))

	c := New()
	require.NoError(t, loader.Load(c))

	assert.Equal(t, 3, c.TranscriptCount())
	assert.Equal(t, "ATGAAACCCTAA", c.GetTranscript("TXP").CodingSequence())
	assert.Equal(t, "ATGAAACCCTAA", c.GetTranscript("TXM").CodingSequence())

	assert.Equal(t, 1, logs.FilterMessage("loaded transcripts").Len())
	assert.Equal(t, 1, logs.FilterMessage("exons without sequence").Len())
}

func TestGENCODELoader_WithoutFASTA(t *testing.T) {
	gtfPath := filepath.Join(t.TempDir(), "annotation.gtf")
	require.NoError(t, os.WriteFile(gtfPath, []byte(testGenomeGTF), 0o644))

	c := New()
	var loader TranscriptLoader = NewGENCODELoader(gtfPath, "")
	require.NoError(t, loader.Load(c))

	assert.Equal(t, 3, c.TranscriptCount())
	assert.Empty(t, c.GetTranscript("TXP").CodingSequence())
}

func TestGENCODELoader_BadFASTA(t *testing.T) {
	gtfPath := filepath.Join(t.TempDir(), "annotation.gtf")
	require.NoError(t, os.WriteFile(gtfPath, []byte(testGenomeGTF), 0o644))

	err := NewGENCODELoader(gtfPath, filepath.Join(t.TempDir(), "missing.fa")).Load(New())
	assert.ErrorContains(t, err, "load FASTA")
}
