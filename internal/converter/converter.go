// Package converter orchestrates a conversion: parse the email file,
// persist its attachments, render the PDF. Batch mode fans a directory
// tree out to a worker pool; files share no state, so workers never
// coordinate beyond the channels.
package converter

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/felo/mail2pdf/internal/attachments"
	"github.com/felo/mail2pdf/internal/config"
	"github.com/felo/mail2pdf/internal/manifest"
	"github.com/felo/mail2pdf/internal/parser"
	"github.com/felo/mail2pdf/internal/pdf"
	"github.com/felo/mail2pdf/internal/scanner"
)

// Result describes one completed conversion.
type Result struct {
	Email           *parser.Email
	AttachmentNames []string
	PDFPath         string
}

// BatchResult contains statistics about a batch run.
type BatchResult struct {
	TotalFound  int
	Converted   int
	Skipped     int
	Failed      int
	FailedFiles []string
}

// Converter runs conversions. The manifest store is optional; without
// one, batch runs re-convert everything.
type Converter struct {
	cfg      *config.Config
	store    *manifest.Store
	renderer *pdf.Renderer
	log      *zap.Logger
}

func New(cfg *config.Config, store *manifest.Store, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		cfg:      cfg,
		store:    store,
		renderer: pdf.New(),
		log:      log,
	}
}

// WithRenderer replaces the PDF renderer.
func (c *Converter) WithRenderer(r *pdf.Renderer) *Converter {
	c.renderer = r
	return c
}

// ConvertFile converts a single email file: attachments are written to
// attachmentsDir in source order, then the PDF is rendered to pdfPath.
// A parse failure leaves the filesystem untouched.
func (c *Converter) ConvertFile(path string, format parser.Format, attachmentsDir, pdfPath string) (*Result, error) {
	email, err := parser.Parse(path, format)
	if err != nil {
		return nil, err
	}

	names, err := attachments.WriteAll(attachmentsDir, email.Attachments)
	if err != nil {
		return nil, err
	}

	if err := c.renderer.Render(email, names, pdfPath); err != nil {
		return nil, err
	}

	c.log.Debug("converted email",
		zap.String("source", path),
		zap.String("pdf", pdfPath),
		zap.Int("attachments", len(names)),
	)
	return &Result{Email: email, AttachmentNames: names, PDFPath: pdfPath}, nil
}

type fileStatus int

const (
	statusConverted fileStatus = iota
	statusSkipped
	statusFailed
)

type fileResult struct {
	relPath string
	status  fileStatus
	err     error
}

// ConvertAll scans root for email files and converts them with a worker
// pool. Per-file failures are collected into the result, not fatal to
// the batch.
func (c *Converter) ConvertAll(root string) (*BatchResult, error) {
	files, err := scanner.NewScanner(root).Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &BatchResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	c.log.Info("starting batch conversion",
		zap.Int("files", result.TotalFound),
		zap.Int("workers", c.cfg.Workers),
	)

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go c.worker(&wg, root, fileChan, resultChan)
	}

	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		switch res.status {
		case statusConverted:
			result.Converted++
		case statusSkipped:
			result.Skipped++
		case statusFailed:
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.relPath)
			c.log.Warn("conversion failed",
				zap.String("file", res.relPath),
				zap.Error(res.err),
			)
		}
	}

	c.log.Info("batch conversion complete",
		zap.Int("converted", result.Converted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (c *Converter) worker(wg *sync.WaitGroup, root string, files <-chan string, results chan<- fileResult) {
	defer wg.Done()
	for relPath := range files {
		results <- c.convertOne(root, relPath)
	}
}

func (c *Converter) convertOne(root, relPath string) fileResult {
	if c.store != nil && !c.cfg.Overwrite {
		converted, err := c.store.IsConverted(relPath)
		if err != nil {
			return fileResult{relPath: relPath, status: statusFailed, err: err}
		}
		if converted {
			return fileResult{relPath: relPath, status: statusSkipped}
		}
	}

	srcPath := filepath.Join(root, filepath.FromSlash(relPath))
	attachmentsDir, pdfPath := c.outputPaths(relPath)

	res, err := c.ConvertFile(srcPath, parser.FormatUnknown, attachmentsDir, pdfPath)
	if err != nil {
		return fileResult{relPath: relPath, status: statusFailed, err: err}
	}

	if c.store != nil {
		err := c.store.Record(manifest.Conversion{
			SourcePath:      relPath,
			Format:          res.Email.Format.String(),
			Subject:         res.Email.Subject,
			Sender:          res.Email.Sender,
			Date:            res.Email.Date,
			PDFPath:         pdfPath,
			AttachmentCount: len(res.AttachmentNames),
		})
		if err != nil {
			return fileResult{relPath: relPath, status: statusFailed, err: err}
		}
	}

	return fileResult{relPath: relPath, status: statusConverted}
}

// outputPaths mirrors the relative source path under the output
// directories, so batch runs of nested trees cannot collide:
// a/b/mail.eml gets attachments in <out>/a/b/mail/ and the PDF at
// <pdfdir>/a/b/mail.pdf.
func (c *Converter) outputPaths(relPath string) (attachmentsDir, pdfPath string) {
	rel := filepath.FromSlash(relPath)
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	attachmentsDir = filepath.Join(c.cfg.OutputDir, stem)
	pdfPath = filepath.Join(c.cfg.ResolvedPDFDir(), stem+".pdf")
	return attachmentsDir, pdfPath
}
