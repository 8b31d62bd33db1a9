package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-codon/internal/cache"
	"github.com/inodb/vibe-codon/internal/duckdb"
)

// annotationSources identifies the files transcripts were loaded from.
type annotationSources struct {
	gtf   duckdb.FileFingerprint
	fasta duckdb.FileFingerprint
}

// resolveAnnotationPaths returns the configured GTF and FASTA, falling back
// to files fetched by the download command.
func resolveAnnotationPaths() (gtfPath, fastaPath string, err error) {
	gtfPath = viper.GetString(gtfKey)
	fastaPath = viper.GetString(fastaKey)
	if gtfPath != "" {
		return gtfPath, fastaPath, nil
	}

	assembly := viper.GetString(assemblyKey)
	gtfPath, found, ok := FindGENCODEFiles(DefaultGENCODEPath(assembly), assembly)
	if !ok {
		return "", "", fmt.Errorf("no GTF configured and no GENCODE files found for %s; run 'vibe-codon download --assembly %s' or pass --%s", assembly, assembly, gtfFlagName)
	}
	if fastaPath == "" {
		fastaPath = found
	}
	return gtfPath, fastaPath, nil
}

// loadTranscripts builds the transcript cache, reusing the serialized
// transcript cache when it matches the source files.
func loadTranscripts() (*cache.Cache, annotationSources, error) {
	var src annotationSources

	gtfPath, fastaPath, err := resolveAnnotationPaths()
	if err != nil {
		return nil, src, err
	}

	if src.gtf, err = duckdb.StatFile(gtfPath); err != nil {
		return nil, src, fmt.Errorf("stat GTF: %w", err)
	}
	if src.fasta, err = duckdb.StatFile(fastaPath); err != nil {
		return nil, src, fmt.Errorf("stat FASTA: %w", err)
	}

	logger.Info("using annotation",
		zap.String("gtf", gtfPath),
		zap.String("fasta", fastaPath))

	c := cache.New()

	var tc *duckdb.TranscriptCache
	if dir := viper.GetString(cacheDirKey); dir != "" {
		tc = duckdb.NewTranscriptCache(dir)
		if tc.Valid(src.gtf, src.fasta) {
			err := tc.Load(c)
			if err == nil {
				logger.Info("loaded transcripts from cache",
					zap.String("dir", dir),
					zap.Int("transcripts", c.TranscriptCount()))
				return c, src, nil
			}
			logger.Warn("transcript cache unreadable, reloading", zap.Error(err))
			tc.Clear()
			c = cache.New()
		}
	}

	loader := cache.NewGENCODELoader(gtfPath, fastaPath)
	loader.SetLogger(logger)
	if err := loader.Load(c); err != nil {
		return nil, src, err
	}

	if tc != nil {
		if err := tc.Write(c, src.gtf, src.fasta); err != nil {
			logger.Warn("could not write transcript cache", zap.Error(err))
		}
	}

	return c, src, nil
}
