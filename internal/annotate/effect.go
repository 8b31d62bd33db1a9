package annotate

import (
	"sync"

	"github.com/inodb/vibe-codon/internal/genome"
)

// EffectType identifies the kind of effect recorded for a transcript.
type EffectType string

// Effect types.
const (
	EffectCodonChange EffectType = "CODON_CHANGE"
)

// Effect is a single effect of a variant on a transcript.
type Effect struct {
	Transcript *genome.Transcript
	Variant    *genome.Variant
	Type       EffectType
	// GenericLowPriority marks effects that more specific classifiers may
	// override.
	GenericLowPriority bool
	CodonNum           int    // Zero-based index of the first changed codon
	CodonIndex         int    // Position of the variant start within its codon
	CodonsRef          string // Reference codons after simplification
	CodonsAlt          string // Alternate codons after simplification
}

// ProteinPosition returns the 1-based amino acid position of the first
// changed codon.
func (e *Effect) ProteinPosition() int {
	return e.CodonNum + 1
}

// CodonChange renders the codon change as "ref/alt", with bases that differ
// between the two windows in upper case.
func (e *Effect) CodonChange() string {
	return FormatCodonChange(e.CodonsRef, e.CodonsAlt)
}

// AminoAcids renders the translated codon windows as "ref/alt".
func (e *Effect) AminoAcids() string {
	ref := TranslateSequence(e.CodonsRef)
	alt := TranslateSequence(e.CodonsAlt)
	if ref == "" {
		ref = "-"
	}
	if alt == "" {
		alt = "-"
	}
	return ref + "/" + alt
}

// VariantEffects is an append-only, concurrency-safe sink of effects.
type VariantEffects struct {
	mu      sync.RWMutex
	effects []Effect
}

// NewVariantEffects creates an empty effect collector.
func NewVariantEffects() *VariantEffects {
	return &VariantEffects{}
}

// Add appends an effect.
func (ve *VariantEffects) Add(e Effect) {
	ve.mu.Lock()
	ve.effects = append(ve.effects, e)
	ve.mu.Unlock()
}

// AddAll appends effects in order, atomically with respect to other writers.
func (ve *VariantEffects) AddAll(effects []Effect) {
	ve.mu.Lock()
	ve.effects = append(ve.effects, effects...)
	ve.mu.Unlock()
}

// Len returns the number of effects recorded so far.
func (ve *VariantEffects) Len() int {
	ve.mu.RLock()
	defer ve.mu.RUnlock()
	return len(ve.effects)
}

// Effects returns a snapshot of all recorded effects in append order.
func (ve *VariantEffects) Effects() []Effect {
	ve.mu.RLock()
	defer ve.mu.RUnlock()
	out := make([]Effect, len(ve.effects))
	copy(out, ve.effects)
	return out
}
