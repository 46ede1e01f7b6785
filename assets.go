package zest

import (
	"slices"
	"sync"
)

// Assets accumulates the stylesheet and script URLs contributed by the
// components rendered while handling one request. Each URL is kept once, in
// the order it was first added.
//
// The zero value is an empty Assets ready to use. Assets can safely be used
// by multiple goroutines.
type Assets struct {
	mu      sync.Mutex
	css     []string
	js      []string
	seenCSS map[string]struct{}
	seenJS  map[string]struct{}
}

// NewAssets returns an empty Assets.
func NewAssets() *Assets {
	return &Assets{}
}

// AddCSS records a stylesheet URL. Empty and already-recorded URLs are
// ignored.
func (a *Assets) AddCSS(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seenCSS == nil {
		a.seenCSS = map[string]struct{}{}
	}
	a.css = appendUnique(a.css, a.seenCSS, url)
}

// AddJS records a script URL. Empty and already-recorded URLs are ignored.
func (a *Assets) AddJS(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seenJS == nil {
		a.seenJS = map[string]struct{}{}
	}
	a.js = appendUnique(a.js, a.seenJS, url)
}

// CSS returns the recorded stylesheet URLs.
func (a *Assets) CSS() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.css)
}

// JS returns the recorded script URLs.
func (a *Assets) JS() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.js)
}

// Reset forgets every recorded URL.
func (a *Assets) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.css, a.js = nil, nil
	a.seenCSS, a.seenJS = nil, nil
}

func appendUnique(list []string, seen map[string]struct{}, url string) []string {
	if url == "" {
		return list
	}
	if _, ok := seen[url]; ok {
		return list
	}
	seen[url] = struct{}{}
	return append(list, url)
}

// Scope holds everything that lives for exactly one request: the asset
// accumulator and the descriptors resolved so far. A Scope must not be
// shared between requests. The zero value is an empty Scope ready to use.
type Scope struct {
	mu          sync.Mutex
	assets      *Assets
	descriptors map[string]Descriptor
}

// NewScope returns a Scope with an empty asset accumulator.
func NewScope() *Scope {
	return &Scope{
		assets:      NewAssets(),
		descriptors: map[string]Descriptor{},
	}
}

// Assets returns the request's asset accumulator.
func (s *Scope) Assets() *Assets {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assets == nil {
		s.assets = NewAssets()
	}
	return s.assets
}

func (s *Scope) descriptor(name string) (Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	desc, ok := s.descriptors[name]
	return desc, ok
}

func (s *Scope) setDescriptor(name string, desc Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.descriptors == nil {
		s.descriptors = map[string]Descriptor{}
	}
	s.descriptors[name] = desc
}
