package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
	"github.com/user/zerocross_analyzer_go/internal/parser"
)

// FakeSource is a test double that serves scripted samples or errors by path.
type FakeSource struct {
	mu sync.Mutex

	// Series maps a path to the samples returned for it.
	Series map[string][]analysis.Sample

	// Errors maps a path to the error returned for it. Takes precedence over Series.
	Errors map[string]error

	// Loaded records every path passed to Load.
	Loaded []string
}

// NewFakeSource creates an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		Series: make(map[string][]analysis.Sample),
		Errors: make(map[string]error),
	}
}

// Load returns the scripted series for path.
func (f *FakeSource) Load(ctx context.Context, path string) (*parser.SampleSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Loaded = append(f.Loaded, path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.Errors[path]; ok {
		return nil, err
	}
	samples, ok := f.Series[path]
	if !ok {
		return nil, &parser.SourceAccessError{Path: path, Err: fmt.Errorf("no such fake source")}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, analysis.ErrEmptyInput)
	}
	return &parser.SampleSeries{Name: filepath.Base(path), Path: path, Samples: samples}, nil
}

// LoadCount returns how many times Load was called.
func (f *FakeSource) LoadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Loaded)
}
