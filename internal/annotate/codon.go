// Package annotate computes the codon-level effect of variants on transcripts.
package annotate

import "strings"

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// TranslateCodon translates a DNA codon to its amino acid.
// Returns 'X' for unknown codons (including placeholder padding) and '*'
// for stop codons.
func TranslateCodon(codon string) byte {
	if len(codon) != codonSize {
		return 'X'
	}
	if aa, ok := codonTable[strings.ToUpper(codon)]; ok {
		return aa
	}
	return 'X'
}

// TranslateSequence translates a DNA sequence to amino acids, ignoring a
// trailing incomplete codon.
func TranslateSequence(seq string) string {
	n := (len(seq) / codonSize) * codonSize

	var result strings.Builder
	result.Grow(n / codonSize)
	for i := 0; i < n; i += codonSize {
		result.WriteByte(TranslateCodon(seq[i : i+codonSize]))
	}
	return result.String()
}

// FormatCodonChange formats a codon change as "ref/alt". Bases that differ
// between the two windows, and any bases past the end of the shorter one,
// are upper case; the rest are lower case. Empty windows render as "-".
func FormatCodonChange(ref, alt string) string {
	if ref == "" && alt == "" {
		return "-/-"
	}
	r := []byte(ref)
	a := []byte(alt)
	for i := range r {
		if i < len(a) && r[i]&^0x20 == a[i]&^0x20 {
			r[i] |= 0x20
			a[i] |= 0x20
		} else {
			r[i] &^= 0x20
		}
	}
	for i := len(r); i < len(a); i++ {
		a[i] &^= 0x20
	}
	for i := range a {
		if i < len(r) && r[i]&^0x20 != a[i]&^0x20 {
			a[i] &^= 0x20
		}
	}
	return orDash(string(r)) + "/" + orDash(string(a))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
