package genome

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	pairs := []struct{ a, b byte }{
		{'A', 'T'}, {'C', 'G'}, {'R', 'Y'}, {'K', 'M'},
		{'B', 'V'}, {'D', 'H'}, {'S', 'S'}, {'W', 'W'}, {'N', 'N'},
	}
	for _, p := range pairs {
		complement[p.a] = p.b
		complement[p.b] = p.a
		complement[p.a|0x20] = p.b | 0x20
		complement[p.b|0x20] = p.a | 0x20
	}
}

// Complement returns the complement of a single base, preserving case.
// Unknown symbols complement to 'N'.
func Complement(base byte) byte {
	return complement[base]
}

// ReverseComplement returns the reverse complement of a DNA sequence.
func ReverseComplement(seq string) string {
	n := len(seq)
	// Stack-allocate for typical allele and codon window lengths.
	var buf [64]byte
	var result []byte
	if n <= len(buf) {
		result = buf[:n]
	} else {
		result = make([]byte, n)
	}
	for i := 0; i < n; i++ {
		result[i] = complement[seq[n-1-i]]
	}
	return string(result)
}
