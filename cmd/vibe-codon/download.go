package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GENCODE FTP URLs
const (
	gencodeBaseURL = "https://ftp.ebi.ac.uk/pub/databases/gencode/Gencode_human/release_46"
	gencodeVersion = "v46"
)

// getGENCODEURLs returns the GTF and genome FASTA URLs for the given assembly.
func getGENCODEURLs(assembly string) (gtfURL, fastaURL string) {
	if strings.EqualFold(assembly, "GRCh37") {
		gtfURL = fmt.Sprintf("%s/GRCh37_mapping/gencode.%slift37.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
		fastaURL = fmt.Sprintf("%s/GRCh37_mapping/GRCh37.primary_assembly.genome.fa.gz", gencodeBaseURL)
		return
	}
	gtfURL = fmt.Sprintf("%s/gencode.%s.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
	fastaURL = fmt.Sprintf("%s/GRCh38.primary_assembly.genome.fa.gz", gencodeBaseURL)
	return
}

func newDownloadCmd() *cobra.Command {
	var (
		outputDir string
		gtfOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download GENCODE annotation and genome files",
		Long: `Download the GENCODE GTF annotation and the primary assembly genome FASTA
into ~/.vibe-codon/<assembly>/, where annotate and codon find them when no
explicit --gtf is configured.

Files downloaded:
  - gencode.v46.annotation.gtf.gz (~50MB for GRCh38)
  - GRCh38.primary_assembly.genome.fa.gz (~850MB for GRCh38)`,
		Example: `  vibe-codon download
  vibe-codon download --assembly GRCh37
  vibe-codon download --dir /data/gencode`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, viper.GetString(assemblyKey), outputDir, gtfOnly)
		},
	}

	cmd.Flags().StringVar(&outputDir, "dir", "", "output directory (default: ~/.vibe-codon/)")
	cmd.Flags().BoolVar(&gtfOnly, "gtf-only", false, "only download the GTF (skip the genome FASTA)")

	return cmd
}

func runDownload(cmd *cobra.Command, assembly, outputDir string, gtfOnly bool) error {
	var destDir string
	if outputDir == "" {
		destDir = DefaultGENCODEPath(assembly)
		if destDir == "" {
			return fmt.Errorf("cannot determine home directory")
		}
	} else {
		destDir = filepath.Join(outputDir, strings.ToLower(assembly))
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", destDir, err)
	}

	gtfURL, fastaURL := getGENCODEURLs(assembly)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Downloading GENCODE %s files for %s...\n", gencodeVersion, assembly)
	fmt.Fprintf(out, "Destination: %s\n\n", destDir)

	if err := downloadFile(out, gtfURL, filepath.Join(destDir, filepath.Base(gtfURL))); err != nil {
		return fmt.Errorf("download GTF: %w", err)
	}

	if !gtfOnly {
		if err := downloadFile(out, fastaURL, filepath.Join(destDir, filepath.Base(fastaURL))); err != nil {
			return fmt.Errorf("download FASTA: %w", err)
		}
	}

	logger.Info("download complete", zap.String("assembly", assembly), zap.String("dir", destDir))
	fmt.Fprintf(out, "\nDownload complete!\n")
	fmt.Fprintf(out, "To compute codon changes, run:\n")
	fmt.Fprintf(out, "  vibe-codon annotate input.vcf\n")
	return nil
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(out io.Writer, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(out, "  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Fprintf(out, "  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{
		Timeout: 60 * time.Minute,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{
		out:       out,
		total:     resp.ContentLength,
		lastPrint: time.Now(),
	}

	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Fprintf(out, "\n    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// DefaultGENCODEPath returns the default directory for downloaded files.
func DefaultGENCODEPath(assembly string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vibe-codon", strings.ToLower(assembly))
}

// FindGENCODEFiles looks for a downloaded GTF and genome FASTA in dir.
// The FASTA path is empty when only the GTF was downloaded.
func FindGENCODEFiles(dir, assembly string) (gtfPath, fastaPath string, found bool) {
	if dir == "" {
		return "", "", false
	}

	gtfPattern := "gencode.v*.annotation.gtf.gz"
	fastaPattern := "GRCh38.primary_assembly.genome.fa.gz"
	if strings.EqualFold(assembly, "GRCh37") {
		gtfPattern = "gencode.v*lift37.annotation.gtf.gz"
		fastaPattern = "GRCh37.primary_assembly.genome.fa.gz"
	}

	matches, err := filepath.Glob(filepath.Join(dir, gtfPattern))
	if err != nil || len(matches) == 0 {
		return "", "", false
	}
	gtfPath = matches[0]

	if p := filepath.Join(dir, fastaPattern); fileExists(p) {
		fastaPath = p
	}

	return gtfPath, fastaPath, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
