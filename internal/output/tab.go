// Package output provides effect output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-codon/internal/annotate"
)

// TabWriter writes codon change effects in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Uploaded_variation",
			"Location",
			"Allele",
			"Gene",
			"Feature",
			"Strand",
			"BIOTYPE",
			"Protein_position",
			"Codon_index",
			"Amino_acids",
			"Codons",
			"Effect",
			"Variant_Type",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single effect.
func (tw *TabWriter) Write(e *annotate.Effect) error {
	v := e.Variant
	t := e.Transcript

	location := fmt.Sprintf("%s:%d", v.SequenceID, v.Start)
	if v.End > v.Start {
		location = fmt.Sprintf("%s:%d-%d", v.SequenceID, v.Start, v.End)
	}

	values := []string{
		variantID(e),
		location,
		dash(v.Alt),
		dash(t.GeneName),
		dash(t.ID),
		t.Strand.String(),
		dash(t.Biotype),
		strconv.Itoa(e.ProteinPosition()),
		strconv.Itoa(e.CodonIndex),
		e.AminoAcids(),
		e.CodonChange(),
		string(e.Type),
		v.Type(),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func variantID(e *annotate.Effect) string {
	if id := e.Variant.ID; id != "" && id != "." {
		return id
	}
	return e.Variant.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
