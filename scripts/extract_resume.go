package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/services"
)

// Extracts text and page previews from local resume files with the same ingestion pipeline the
// API uses. Usage: go run ./scripts -out ./out resume.pdf notes.txt
func main() {
	outDir := flag.String("out", "./extracted", "directory for extracted text and page images")
	flag.Parse()

	cfg := config.Load()
	log := config.NewLogger(cfg.Log)

	if flag.NArg() == 0 {
		log.Fatal("❌ No input files given")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatal("❌ Failed to create output directory")
	}

	ingestor := services.NewIngestor(
		services.NewPDFBackend(services.NewPageRenderer(cfg.Ingestion.RenderScale)),
		cfg.Ingestion.MaxFileSize,
		log,
	)

	ctx := context.Background()
	failed := 0

	for _, path := range flag.Args() {
		fileLog := log.WithField("file", path)

		if err := extract(ctx, ingestor, path, *outDir); err != nil {
			failed++
			var ingErr *services.IngestionError
			if errors.As(err, &ingErr) {
				fileLog.WithError(errors.Unwrap(err)).WithField("kind", ingErr.Kind).Error("❌ " + ingErr.Message)
			} else {
				fileLog.WithError(err).Error("❌ Extraction failed")
			}
			continue
		}

		fileLog.Info("✅ Extracted")
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func extract(ctx context.Context, ingestor *services.Ingestor, path, outDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	doc, err := ingestor.IngestFile(ctx, services.FileInput{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Content:  f,
	})
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := os.WriteFile(filepath.Join(outDir, base+".txt"), []byte(doc.RawText), 0o644); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}

	for _, page := range doc.PageImages {
		name := fmt.Sprintf("%s-page-%d.png", base, page.Page)
		if err := os.WriteFile(filepath.Join(outDir, name), page.PNG, 0o644); err != nil {
			return fmt.Errorf("failed to write page %d: %w", page.Page, err)
		}
	}

	return nil
}
