package postprocessors

import (
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/postprocessors/cleaner"
)

// DefaultProcessors is the processor chain used when none is configured.
var DefaultProcessors = []string{cleaner.AnnotationsName, cleaner.DedupeName}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(cleaner.AnnotationsName, buildAnnotations)
	r.Register(cleaner.DedupeName, func(_ map[string]any) (driven.SegmentProcessor, error) {
		return cleaner.NewDedupe(), nil
	})
}

// buildAnnotations creates an annotation stripper from generic config.
// Supported config keys:
//   - keep_parentheses (bool): leave "(...)" asides untouched (default: false)
func buildAnnotations(cfg map[string]any) (driven.SegmentProcessor, error) {
	keepParens := false
	if cfg != nil {
		if v, ok := cfg["keep_parentheses"].(bool); ok {
			keepParens = v
		}
	}
	return cleaner.NewAnnotations(keepParens), nil
}
