package annotate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-codon/internal/genome"
	"github.com/inodb/vibe-codon/internal/vcf"
)

// TranscriptLookup defines the interface for finding transcripts overlapping
// a genomic range.
type TranscriptLookup interface {
	FindTranscripts(chrom string, start, end int64) []*genome.Transcript
}

// Annotator evaluates variants against every overlapping transcript.
type Annotator struct {
	cache    TranscriptLookup
	workers  int
	logger   *zap.Logger
	failures atomic.Int64
	variants atomic.Int64
}

// NewAnnotator creates a new annotator with the given cache.
func NewAnnotator(c TranscriptLookup) *Annotator {
	return &Annotator{
		cache:  c,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetWorkers sets the number of annotation workers. 0 uses runtime.NumCPU().
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// Failures returns the number of (variant, transcript) pairs skipped because
// the transcript data was inconsistent.
func (a *Annotator) Failures() int64 {
	return a.failures.Load()
}

// Variants returns the number of input records read by AnnotateAll, before
// multi-allelic splitting.
func (a *Annotator) Variants() int64 {
	return a.variants.Load()
}

// Annotate computes the codon change effects of a single variant.
//
// Transcripts with inconsistent CDS data are logged and skipped; they never
// contribute a partial effect.
func (a *Annotator) Annotate(v *genome.Variant) ([]Effect, error) {
	chrom := genome.NormalizeChrom(v.SequenceID)
	transcripts := a.cache.FindTranscripts(chrom, v.Start, v.End)
	if len(transcripts) == 0 {
		return nil, nil
	}

	effects := NewVariantEffects()
	for _, t := range transcripts {
		_, err := ChangeCodon(v, t, effects)
		if err == nil {
			continue
		}
		var ce *ConsistencyError
		switch {
		case errors.As(err, &ce), errors.Is(err, ErrEmptyCodingSequence), errors.Is(err, ErrEmptyTranscript):
			a.failures.Add(1)
			a.logger.Warn("skipping transcript",
				zap.String("transcript", t.ID),
				zap.String("variant", v.String()),
				zap.Error(err))
		default:
			return nil, fmt.Errorf("change codon %s on %s: %w", v, t.ID, err)
		}
	}
	return effects.Effects(), nil
}

// AnnotateAll annotates all variants from a parser, appending effects to
// sink in input order and passing them to writer. A parse or write error
// cancels the run: the parser is not read further and workers stop.
func (a *Annotator) AnnotateAll(ctx context.Context, parser vcf.VariantParser, sink *VariantEffects, writer EffectWriter) error {
	workers := a.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make(chan WorkItem, 2*workers)

	g, gctx := errgroup.WithContext(ctx)
	variantCount := 0

	g.Go(func() error {
		defer close(items)
		seq := 0
		for {
			v, err := parser.Next()
			if err != nil {
				return fmt.Errorf("read variant: %w", err)
			}
			if v == nil {
				return nil
			}
			variantCount++
			a.variants.Add(1)

			for _, variant := range vcf.SplitMultiAllelic(v) {
				select {
				case items <- WorkItem{Seq: seq, Variant: variant}:
				case <-gctx.Done():
					return gctx.Err()
				}
				seq++
			}
		}
	})

	g.Go(func() error {
		results := a.ParallelAnnotate(gctx, items, workers)
		return OrderedCollect(gctx, results, func(r WorkResult) error {
			if r.Err != nil {
				a.logger.Warn("failed to annotate variant",
					zap.String("variant", r.Variant.String()),
					zap.Error(r.Err))
				return nil
			}
			sink.AddAll(r.Effects)
			for i := range r.Effects {
				if err := writer.Write(&r.Effects[i]); err != nil {
					return fmt.Errorf("write effect: %w", err)
				}
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if variantCount == 0 {
		a.logger.Info("0 variants processed")
	}
	a.logger.Info("annotation finished",
		zap.Int("variants", variantCount),
		zap.Int("effects", sink.Len()),
		zap.Int64("skipped_transcripts", a.Failures()))

	return writer.Flush()
}

// EffectWriter defines the interface for writing effects.
type EffectWriter interface {
	WriteHeader() error
	Write(e *Effect) error
	Flush() error
}
