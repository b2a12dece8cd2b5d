package specialist

import (
	"context"

	"council-lab/domain/specialist"
)

// StaticHandler replies instantly with canned, specialist-flavored
// text. It stands in for a model-backed handler and keeps rounds fully
// deterministic.
type StaticHandler struct {
	id      specialist.ID
	content string
	tags    []string
}

var _ Handler = (*StaticHandler)(nil)

func NewStaticHandler(id specialist.ID, content string, tags []string) *StaticHandler {
	return &StaticHandler{id: id, content: content, tags: tags}
}

func (h *StaticHandler) ID() specialist.ID {
	return h.id
}

func (h *StaticHandler) Respond(ctx context.Context, req specialist.Request) (specialist.Response, error) {
	select {
	case <-ctx.Done():
		return specialist.Response{}, ctx.Err()
	default:
	}

	metadata := map[string]any{
		"type": "static",
		"tags": h.tags,
	}
	if req.Context.Language != "" {
		metadata["language"] = req.Context.Language
	}

	return specialist.Response{
		Content:  h.content,
		Metadata: metadata,
	}, nil
}

// Builtins returns the standard pool, one handler per identifier.
func Builtins() []Handler {
	return []Handler{
		NewStaticHandler(specialist.Code,
			"From the code side: I'd start with a small, testable component and grow it from there.",
			[]string{"implementation", "review"}),
		NewStaticHandler(specialist.Design,
			"From the design side: consistent spacing and a restrained palette will carry most of the visual weight.",
			[]string{"layout", "visual"}),
		NewStaticHandler(specialist.Writing,
			"From the writing side: lead with the outcome, then document the steps in the order a newcomer needs them.",
			[]string{"editorial", "docs"}),
		NewStaticHandler(specialist.Analysis,
			"From the analysis side: measure before changing anything, then attack the slowest segment first.",
			[]string{"metrics", "profiling"}),
	}
}

// NewBuiltinRegistry is the default pool wired into the server.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, h := range Builtins() {
		r.Register(h)
	}
	return r
}
