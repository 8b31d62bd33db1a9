package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-codon/internal/annotate"
)

// EffectRecord is a persisted codon change effect.
type EffectRecord struct {
	Chrom        string
	Pos          int64
	End          int64
	Ref          string
	Alt          string
	VariantID    string
	TranscriptID string
	GeneName     string
	GeneID       string
	Strand       string
	Biotype      string
	Effect       string
	LowPriority  bool
	CodonNum     int64
	CodonIndex   int64
	CodonsRef    string
	CodonsAlt    string
}

// CodonChange renders the stored codon windows as "ref/alt".
func (r *EffectRecord) CodonChange() string {
	return annotate.FormatCodonChange(r.CodonsRef, r.CodonsAlt)
}

// NewEffectRecord flattens an effect into its persisted form.
func NewEffectRecord(e *annotate.Effect) EffectRecord {
	v := e.Variant
	t := e.Transcript
	return EffectRecord{
		Chrom:        v.SequenceID,
		Pos:          v.Start,
		End:          v.End,
		Ref:          v.Ref,
		Alt:          v.Alt,
		VariantID:    v.ID,
		TranscriptID: t.ID,
		GeneName:     t.GeneName,
		GeneID:       t.GeneID,
		Strand:       t.Strand.String(),
		Biotype:      t.Biotype,
		Effect:       string(e.Type),
		LowPriority:  e.GenericLowPriority,
		CodonNum:     int64(e.CodonNum),
		CodonIndex:   int64(e.CodonIndex),
		CodonsRef:    e.CodonsRef,
		CodonsAlt:    e.CodonsAlt,
	}
}

// recordKey is the composite key for deduplicating effects before writing.
type recordKey struct {
	chrom, ref, alt, transcriptID string
	pos                           int64
}

// WriteEffects batch-inserts effects into DuckDB using the Appender API.
// Duplicate (chrom, pos, ref, alt, transcript_id) entries are deduplicated
// before writing, and rows already stored under the same key are replaced.
func (s *Store) WriteEffects(effects []annotate.Effect) error {
	if len(effects) == 0 {
		return nil
	}

	// Deduplicate by primary key; the last effect for a key wins.
	index := make(map[recordKey]int, len(effects))
	records := make([]EffectRecord, 0, len(effects))
	for i := range effects {
		r := NewEffectRecord(&effects[i])
		k := recordKey{r.Chrom, r.Ref, r.Alt, r.TranscriptID, r.Pos}
		if j, ok := index[k]; ok {
			records[j] = r
			continue
		}
		index[k] = len(records)
		records = append(records, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM codon_effects_staging"); err != nil {
		return fmt.Errorf("reset staging: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "codon_effects_staging")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range records {
		if err := appender.AppendRow(
			r.Chrom, r.Pos, r.End, r.Ref, r.Alt, r.VariantID,
			r.TranscriptID, r.GeneName, r.GeneID, r.Strand, r.Biotype,
			r.Effect, r.LowPriority, r.CodonNum, r.CodonIndex,
			r.CodonsRef, r.CodonsAlt,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append effect: %w", err)
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "INSERT OR REPLACE INTO codon_effects SELECT * FROM codon_effects_staging"); err != nil {
		return fmt.Errorf("merge effects: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM codon_effects_staging"); err != nil {
		return fmt.Errorf("reset staging: %w", err)
	}
	return nil
}

// ClearEffects removes all stored effects.
func (s *Store) ClearEffects() error {
	_, err := s.db.Exec("DELETE FROM codon_effects")
	return err
}

// CountEffects returns the number of stored effects.
func (s *Store) CountEffects() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT count(*) FROM codon_effects").Scan(&n); err != nil {
		return 0, fmt.Errorf("count effects: %w", err)
	}
	return n, nil
}

const selectEffects = `SELECT
		chrom, pos, end_pos, ref, alt, variant_id,
		transcript_id, gene_name, gene_id, strand, biotype,
		effect, low_priority, codon_num, codon_index,
		codons_ref, codons_alt
		FROM codon_effects`

// LookupVariant queries DuckDB for previously stored effects of a specific
// variant, ordered by transcript.
func (s *Store) LookupVariant(chrom string, pos int64, ref, alt string) ([]EffectRecord, error) {
	rows, err := s.db.Query(selectEffects+`
		WHERE chrom=? AND pos=? AND ref=? AND alt=?
		ORDER BY transcript_id`,
		chrom, pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	defer rows.Close()

	return scanEffectRecords(rows)
}

// SearchByGene queries DuckDB for all stored effects for a gene.
func (s *Store) SearchByGene(geneName string) ([]EffectRecord, error) {
	rows, err := s.db.Query(selectEffects+`
		WHERE gene_name=?
		ORDER BY chrom, pos, transcript_id`, geneName)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanEffectRecords(rows)
}

// SearchByTranscript queries DuckDB for all stored effects on a transcript.
func (s *Store) SearchByTranscript(transcriptID string) ([]EffectRecord, error) {
	rows, err := s.db.Query(selectEffects+`
		WHERE transcript_id=?
		ORDER BY pos, ref, alt`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query by transcript: %w", err)
	}
	defer rows.Close()

	return scanEffectRecords(rows)
}

// scanEffectRecords scans rows into EffectRecord slices.
func scanEffectRecords(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]EffectRecord, error) {
	var records []EffectRecord
	for rows.Next() {
		var r EffectRecord
		if err := rows.Scan(
			&r.Chrom, &r.Pos, &r.End, &r.Ref, &r.Alt, &r.VariantID,
			&r.TranscriptID, &r.GeneName, &r.GeneID, &r.Strand, &r.Biotype,
			&r.Effect, &r.LowPriority, &r.CodonNum, &r.CodonIndex,
			&r.CodonsRef, &r.CodonsAlt,
		); err != nil {
			return nil, fmt.Errorf("scan effect: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effects: %w", err)
	}
	return records, nil
}
