package cache

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-codon/internal/genome"
)

// GTFLoader loads transcript structure from GENCODE/Ensembl GTF files.
type GTFLoader struct {
	path   string
	logger *zap.Logger
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-line warnings.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load loads all transcripts from the GTF file into the cache.
func (l *GTFLoader) Load(c *Cache) error {
	return l.loadGTF(c, "")
}

// LoadChromosome loads transcripts for a specific chromosome.
func (l *GTFLoader) LoadChromosome(c *Cache, chrom string) error {
	return l.loadGTF(c, chrom)
}

// loadGTF parses the GTF file and populates the cache.
// If filterChrom is non-empty, only loads that chromosome.
func (l *GTFLoader) loadGTF(c *Cache, filterChrom string) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	transcripts, err := l.parseGTF(reader, filterChrom)
	if err != nil {
		return err
	}

	for _, t := range transcripts {
		c.AddTranscript(t)
	}
	return nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      genome.Strand
	attributes  map[string]string
}

// transcriptRecord accumulates the features of one transcript.
type transcriptRecord struct {
	t          *genome.Transcript
	exons      []genome.Exon
	cdsStart   int64 // from start/stop codons
	cdsEnd     int64
	cdsRegions [][2]int64
}

// parseGTF parses GTF content and returns transcripts sorted by chromosome
// and start.
func (l *GTFLoader) parseGTF(reader io.Reader, filterChrom string) ([]*genome.Transcript, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	records := make(map[string]*transcriptRecord)
	record := func(id string) *transcriptRecord {
		r, ok := records[id]
		if !ok {
			r = &transcriptRecord{}
			records[id] = r
		}
		return r
	}

	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseGTFLine(line)
		if err != nil {
			skipped++
			l.logger.Debug("skipping GTF line", zap.Int("line", lineNum), zap.Error(err))
			continue
		}

		if filterChrom != "" && feat.chrom != genome.NormalizeChrom(filterChrom) {
			continue
		}

		transcriptID := feat.attributes["transcript_id"]
		if transcriptID == "" {
			continue
		}
		// Strip version suffix for consistent lookup
		transcriptID = stripVersion(transcriptID)

		switch feat.featureType {
		case "transcript":
			biotype := feat.attributes["transcript_type"]
			if biotype == "" {
				biotype = feat.attributes["transcript_biotype"]
			}
			t := genome.NewTranscript(transcriptID, genome.Interval{
				SequenceID: feat.chrom,
				Strand:     feat.strand,
				Start:      feat.start,
				End:        feat.end,
			}, nil, 0, 0)
			t.GeneID = stripVersion(feat.attributes["gene_id"])
			t.GeneName = feat.attributes["gene_name"]
			t.Biotype = biotype
			record(transcriptID).t = t

		case "exon":
			exonNum, _ := strconv.Atoi(feat.attributes["exon_number"])
			r := record(transcriptID)
			r.exons = append(r.exons, genome.Exon{
				Interval: genome.Interval{
					SequenceID: feat.chrom,
					Strand:     feat.strand,
					Start:      feat.start,
					End:        feat.end,
				},
				Number: exonNum,
			})

		case "CDS":
			r := record(transcriptID)
			r.cdsRegions = append(r.cdsRegions, [2]int64{feat.start, feat.end})

		case "start_codon", "stop_codon":
			// Forward strand: start codon opens the CDS and stop codon closes
			// it. Reverse strand: the other way round, genomically.
			r := record(transcriptID)
			opens := (feat.featureType == "start_codon") == feat.strand.IsPlus()
			if opens {
				if r.cdsStart == 0 || feat.start < r.cdsStart {
					r.cdsStart = feat.start
				}
			} else if feat.end > r.cdsEnd {
				r.cdsEnd = feat.end
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	if skipped > 0 {
		l.logger.Warn("skipped malformed GTF lines", zap.Int("count", skipped))
	}

	transcripts := make([]*genome.Transcript, 0, len(records))
	for id, r := range records {
		if r.t == nil || len(r.exons) == 0 {
			continue
		}
		t := r.t
		t.Exons = r.exons
		t.SortExons()
		t.CDSStart, t.CDSEnd = r.cdsBounds()

		if err := t.Validate(); err != nil {
			l.logger.Warn("invalid transcript", zap.String("transcript", id), zap.Error(err))
		}
		transcripts = append(transcripts, t)
	}

	sort.Slice(transcripts, func(i, j int) bool {
		a, b := transcripts[i], transcripts[j]
		if a.SequenceID != b.SequenceID {
			return a.SequenceID < b.SequenceID
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
	return transcripts, nil
}

// cdsBounds returns the CDS range, preferring start/stop codon features and
// extending it with the CDS features. The GTF CDS features exclude the stop
// codon, so codon features win where both are present.
func (r *transcriptRecord) cdsBounds() (int64, int64) {
	start, end := r.cdsStart, r.cdsEnd
	if len(r.cdsRegions) == 0 {
		if start == 0 || end == 0 {
			return 0, 0
		}
		return start, end
	}

	minStart := r.cdsRegions[0][0]
	maxEnd := r.cdsRegions[0][1]
	for _, region := range r.cdsRegions[1:] {
		minStart = min(minStart, region[0])
		maxEnd = max(maxEnd, region[1])
	}
	if start == 0 || minStart < start {
		start = minStart
	}
	if end == 0 || maxEnd > end {
		end = maxEnd
	}
	return start, end
}

// parseGTFLine parses a single GTF line.
func parseGTFLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if start < 1 || start > end {
		return nil, fmt.Errorf("invalid range %d-%d", start, end)
	}

	return &gtfFeature{
		chrom:       genome.NormalizeChrom(fields[0]),
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      genome.ParseStrand(fields[6]),
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys (such as tag) are joined with a comma.
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Find the first space to separate key from value
		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.Trim(strings.TrimSpace(part[idx+1:]), "\"")

		if prev, ok := attrs[key]; ok {
			attrs[key] = prev + "," + value
			continue
		}
		attrs[key] = value
	}

	return attrs
}

// stripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328". GENCODE marks the chrY
// copies of pseudoautosomal transcripts with a "_PAR_Y" suffix, which is
// kept so they do not collide with the chrX records:
// "ENST00000381192.10_PAR_Y" -> "ENST00000381192_PAR_Y".
func stripVersion(id string) string {
	suffix := ""
	if idx := strings.Index(id, "_PAR_"); idx != -1 {
		id, suffix = id[:idx], id[idx:]
	}
	if idx := strings.LastIndex(id, "."); idx != -1 {
		id = id[:idx]
	}
	return id + suffix
}
