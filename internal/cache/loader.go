package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// TranscriptLoader populates a cache with transcripts.
type TranscriptLoader interface {
	Load(c *Cache) error
}

// GENCODELoader combines GTF and genome FASTA loaders for complete
// annotation data.
type GENCODELoader struct {
	gtf       *GTFLoader
	fastaPath string
	logger    *zap.Logger
}

// NewGENCODELoader creates a loader for a GTF file and an optional genome
// FASTA file. Without FASTA, exons carry no sequence and coding transcripts
// cannot be evaluated.
func NewGENCODELoader(gtfPath, fastaPath string) *GENCODELoader {
	return &GENCODELoader{
		gtf:       NewGTFLoader(gtfPath),
		fastaPath: fastaPath,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger used while loading.
func (l *GENCODELoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
	l.gtf.SetLogger(logger)
}

// Load loads all transcripts and exon sequences into the cache.
func (l *GENCODELoader) Load(c *Cache) error {
	if err := l.gtf.Load(c); err != nil {
		return fmt.Errorf("load GTF: %w", err)
	}
	l.logger.Info("loaded transcripts",
		zap.Int("transcripts", c.TranscriptCount()),
		zap.Strings("chromosomes", c.Chromosomes()))

	if l.fastaPath == "" {
		l.logger.Warn("no genome FASTA configured, coding sequences unavailable")
		return nil
	}

	fasta := NewFASTALoader(l.fastaPath)
	fasta.Restrict(c.Chromosomes())
	if err := fasta.Load(); err != nil {
		return fmt.Errorf("load FASTA: %w", err)
	}

	filled, missing := fasta.AttachSequences(c)
	l.logger.Info("attached exon sequences",
		zap.Int("sequences", fasta.SequenceCount()),
		zap.Int("exons", filled))
	if missing > 0 {
		l.logger.Warn("exons without sequence", zap.Int("count", missing))
	}
	return nil
}
