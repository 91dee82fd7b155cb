package folio

import "time"

// Config holds the tunable parsing parameters. All fields have working
// defaults; the zero value is not usable, start from DefaultConfig.
type Config struct {
	// MaxArchiveSize is the advisory archive size bound in bytes. Exceeding
	// it raises a warning but never blocks parsing.
	MaxArchiveSize int64 `yaml:"max_archive_size"`

	// EnableFallbacks enables the placeholder content and fallback chapter
	// strategies that guarantee a minimally viewable result.
	EnableFallbacks bool `yaml:"enable_fallbacks"`

	// AggressiveCleanup additionally drops numeric reference markers during
	// HTML processing.
	AggressiveCleanup bool `yaml:"aggressive_cleanup"`

	// MinQuality is the minimum acceptable HTML processing quality score;
	// lower-scoring files are reprocessed through the strip-all salvage
	// path.
	MinQuality float64 `yaml:"min_quality"`

	// TargetPageChars is the preferred page length in characters.
	TargetPageChars int `yaml:"target_page_chars"`

	// MinPageChars is the advisory lower bound for page length.
	MinPageChars int `yaml:"min_page_chars"`

	// MaxPageChars is the hard page length limit.
	MaxPageChars int `yaml:"max_page_chars"`

	// PreserveParagraphs prefers paragraph-boundary pagination when the
	// content shape allows it.
	PreserveParagraphs bool `yaml:"preserve_paragraphs"`

	// ReconcileChapterPages replaces estimated chapter page ranges with the
	// real spans produced by pagination. Off by default: the estimate
	// matches historical behavior.
	ReconcileChapterPages bool `yaml:"reconcile_chapter_pages"`

	// Timeout is advisory only; the pipeline does not enforce it. Callers
	// wanting cancellation should use ParseContext.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default parsing parameters.
func DefaultConfig() Config {
	return Config{
		MaxArchiveSize:     50 * 1024 * 1024,
		EnableFallbacks:    true,
		MinQuality:         0.3,
		TargetPageChars:    1200,
		MinPageChars:       800,
		MaxPageChars:       1800,
		PreserveParagraphs: true,
	}
}
