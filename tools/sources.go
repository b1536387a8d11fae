package tools

import (
	"context"
	"sync"
)

// Source is a citation surfaced to the caller alongside an answer.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// SourceSink collects sources recorded by tools during one request.
type SourceSink struct {
	mu      sync.Mutex
	sources []Source
	seen    map[Source]struct{}
}

func NewSourceSink() *SourceSink {
	return &SourceSink{seen: make(map[Source]struct{})}
}

// Add records sources, dropping exact duplicates.
func (s *SourceSink) Add(srcs ...Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range srcs {
		if _, dup := s.seen[src]; dup {
			continue
		}
		s.seen[src] = struct{}{}
		s.sources = append(s.sources, src)
	}
}

// Sources returns a copy of the recorded sources in insertion order.
func (s *SourceSink) Sources() []Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Source{}, s.sources...)
}

type sinkKey struct{}

func WithSourceSink(ctx context.Context, s *SourceSink) context.Context {
	return context.WithValue(ctx, sinkKey{}, s)
}

// SourceSinkFromContext returns the request's sink, if any.
func SourceSinkFromContext(ctx context.Context) (*SourceSink, bool) {
	s, ok := ctx.Value(sinkKey{}).(*SourceSink)
	return s, ok && s != nil
}

func recordSources(ctx context.Context, srcs ...Source) {
	if sink, ok := SourceSinkFromContext(ctx); ok {
		sink.Add(srcs...)
	}
}
