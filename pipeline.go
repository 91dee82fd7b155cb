package folio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/folio/chapters"
	"github.com/tsawler/folio/extract"
	"github.com/tsawler/folio/htmlproc"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/paginate"
	"github.com/tsawler/folio/structure"
	"github.com/tsawler/folio/validate"
)

// parse runs the seven pipeline stages in order. Diagnostics accumulate
// additively across stages and are never discarded; cancellation is checked
// only between stages so a stage that runs always reports completely.
func (p *Parser) parse(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	fail := func(sentinel error) (*Result, error) {
		res.Elapsed = time.Since(start)
		if d, ok := model.FirstFatal(res.Diagnostics); ok {
			return res, fmt.Errorf("%w: %s", sentinel, d.Message)
		}
		return res, sentinel
	}

	// Stage 1: validation.
	vopts := validate.Options{
		MaxArchiveSize: p.cfg.MaxArchiveSize,
		Extension:      ".epub",
	}
	var report *validate.Report
	if p.data != nil {
		report = validate.Bytes(p.name, p.data, vopts)
	} else {
		report = validate.File(p.path, vopts)
	}
	res.Diagnostics = append(res.Diagnostics, report.Diagnostics...)
	if !report.Valid {
		return fail(ErrValidation)
	}

	if err := stageBoundary(ctx, res, start); err != nil {
		return res, err
	}

	// Stage 2: structure parsing.
	doc, diags, err := structure.Parse(report.Archive)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		return fail(ErrStructure)
	}

	if err := stageBoundary(ctx, res, start); err != nil {
		return res, err
	}

	// Stage 3: content extraction.
	files, diags, used := extract.Run(report.Archive, doc, p.cfg.EnableFallbacks)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.StrategiesUsed = append(res.StrategiesUsed, used...)
	if len(files) == 0 {
		res.Diagnostics = append(res.Diagnostics, model.NewFatal("content-extractor",
			"no content documents could be extracted and fallbacks are disabled"))
		return fail(ErrNoContent)
	}

	if err := stageBoundary(ctx, res, start); err != nil {
		return res, err
	}

	// Stage 4: HTML processing.
	diags = htmlproc.Process(files, htmlproc.Options{
		MinQuality: p.cfg.MinQuality,
		Aggressive: p.cfg.AggressiveCleanup,
	})
	res.Diagnostics = append(res.Diagnostics, diags...)

	if err := stageBoundary(ctx, res, start); err != nil {
		return res, err
	}

	// Stage 5: chapter analysis.
	chs, diags, used := chapters.Analyze(doc, files)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.StrategiesUsed = append(res.StrategiesUsed, used...)

	if err := stageBoundary(ctx, res, start); err != nil {
		return res, err
	}

	// Stage 6: pagination.
	pres, diags := paginate.Run(files, paginate.Options{
		TargetChars:        p.cfg.TargetPageChars,
		MinChars:           p.cfg.MinPageChars,
		MaxChars:           p.cfg.MaxPageChars,
		PreserveParagraphs: p.cfg.PreserveParagraphs,
	})
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.StrategiesUsed = append(res.StrategiesUsed, pres.StrategiesUsed...)

	if p.cfg.ReconcileChapterPages {
		chapters.Reconcile(chs, files)
	}

	// Stage 7: assembly.
	res.Elapsed = time.Since(start)
	res.Book = assemble(report, doc, files, chs, pres, res)

	return res, nil
}

// stageBoundary honors cancellation between stages.
func stageBoundary(ctx context.Context, res *Result, start time.Time) error {
	select {
	case <-ctx.Done():
		res.Elapsed = time.Since(start)
		return ctx.Err()
	default:
		return nil
	}
}

// assemble combines all stage outputs into the final immutable document.
func assemble(report *validate.Report, doc *structure.Document, files []*model.ContentFile,
	chs []*model.ChapterNode, pres *paginate.Result, res *Result) *model.BookDocument {

	details := map[string]string{
		"version_detection":  "heuristic: nav-document presence, not declared metadata",
		"pagination_quality": fmt.Sprintf("%.3f", pres.Quality),
	}
	if report.Charset != "" {
		details["container_charset"] = report.Charset
	}

	return &model.BookDocument{
		Metadata:   doc.Metadata,
		FileSize:   report.FileSize,
		Version:    doc.Version,
		Chapters:   chs,
		Files:      files,
		Navigation: doc.Navigation,
		Manifest:   doc.Manifest,
		Spine:      doc.Spine,
		Parsing: model.ParsingMetadata{
			ParseID:        uuid.NewString(),
			Duration:       res.Elapsed,
			Strategies:     res.StrategiesUsed,
			Diagnostics:    res.Diagnostics,
			EstimatedPages: pres.TotalPages,
			ParserVersion:  Version,
			Details:        details,
		},
	}
}
