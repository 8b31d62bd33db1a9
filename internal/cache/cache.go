// Package cache holds the transcript models used for annotation and the
// loaders that build them from GTF and genome FASTA files.
package cache

import (
	"sort"
	"sync"

	"github.com/inodb/vibe-codon/internal/genome"
)

// Cache provides access to transcript data for variant annotation.
//
// Transcripts are added while loading; lookups may then run from many
// goroutines. Per-chromosome interval trees are built on first lookup and
// dropped when a transcript is added to that chromosome.
type Cache struct {
	mu sync.RWMutex
	// transcripts stores transcripts indexed by chromosome
	transcripts map[string][]*genome.Transcript
	trees       map[string]*IntervalTree
	byID        map[string]*genome.Transcript
	genes       map[string]*Gene
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		transcripts: make(map[string][]*genome.Transcript),
		trees:       make(map[string]*IntervalTree),
		byID:        make(map[string]*genome.Transcript),
		genes:       make(map[string]*Gene),
	}
}

// AddTranscript adds a transcript to the cache.
func (c *Cache) AddTranscript(t *genome.Transcript) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chrom := t.SequenceID
	c.transcripts[chrom] = append(c.transcripts[chrom], t)
	delete(c.trees, chrom)
	c.byID[t.ID] = t

	if t.GeneName != "" {
		g, ok := c.genes[t.GeneName]
		if !ok {
			g = &Gene{ID: t.GeneID, Name: t.GeneName, Interval: genome.Interval{
				SequenceID: chrom, Strand: t.Strand, Start: t.Start, End: t.End,
			}}
			c.genes[t.GeneName] = g
		}
		g.addTranscript(t)
	}
}

// FindTranscripts returns all transcripts that overlap [start, end] on chrom,
// ordered by transcript start.
func (c *Cache) FindTranscripts(chrom string, start, end int64) []*genome.Transcript {
	return c.tree(chrom).FindRange(start, end)
}

func (c *Cache) tree(chrom string) *IntervalTree {
	c.mu.RLock()
	tree, ok := c.trees[chrom]
	c.mu.RUnlock()
	if ok {
		return tree
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if tree, ok := c.trees[chrom]; ok {
		return tree
	}
	tree = BuildIntervalTree(c.transcripts[chrom])
	c.trees[chrom] = tree
	return tree
}

// GetTranscript returns a specific transcript by ID, or nil if not found.
func (c *Cache) GetTranscript(id string) *genome.Transcript {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.byID[id]; ok {
		return t
	}
	return c.byID[stripVersion(id)]
}

// GetGene returns the gene with the given symbol, or nil if not found.
func (c *Cache) GetGene(name string) *Gene {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genes[name]
}

// TranscriptCount returns the total number of transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, transcripts := range c.transcripts {
		count += len(transcripts)
	}
	return count
}

// Chromosomes returns a sorted list of chromosomes in the cache.
func (c *Cache) Chromosomes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chroms := make([]string, 0, len(c.transcripts))
	for chrom := range c.transcripts {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// FindTranscriptsByChrom returns all transcripts for a chromosome.
func (c *Cache) FindTranscriptsByChrom(chrom string) []*genome.Transcript {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transcripts[chrom]
}
