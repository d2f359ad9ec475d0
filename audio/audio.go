// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// SniffLen is the number of leading bytes handed to a SniffFunc.
const SniffLen = 64

// Source is a stream of interleaved float32 samples.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Sink consumes interleaved float32 samples.
type Sink interface {
	WriteSamples(samples []float32) error
}

// SniffFunc reports whether header (at most SniffLen bytes) belongs to a format.
type SniffFunc func(header []byte) bool

type format struct {
	decoder Decoder
	sniff   SniffFunc
	exts    []string
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	formats map[string]format
	order   []string

	mtx *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]format),
		mtx:     &sync.RWMutex{},
	}
}

// Register adds or replaces a decoder. sniff may be nil; extensions are
// matched case-insensitively with or without the leading dot.
func (r *Registry) Register(name string, d Decoder, sniff SniffFunc, exts ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		norm = append(norm, normExt(e))
	}

	if _, ok := r.formats[name]; !ok {
		r.order = append(r.order, name)
	}
	r.formats[name] = format{decoder: d, sniff: sniff, exts: norm}
}

func (r *Registry) Get(name string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	f, ok := r.formats[name]
	return f.decoder, ok
}

// Formats lists the registered names in registration order.
func (r *Registry) Formats() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return slices.Clone(r.order)
}

// Detect returns the first format, in registration order, whose sniffer
// accepts header.
func (r *Registry) Detect(header []byte) (string, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if len(header) > SniffLen {
		header = header[:SniffLen]
	}
	for _, name := range r.order {
		if f := r.formats[name]; f.sniff != nil && f.sniff(header) {
			return name, true
		}
	}
	return "", false
}

// ByExtension returns the format registered for the extension of path.
func (r *Registry) ByExtension(path string) (string, bool) {
	ext := normExt(filepath.Ext(path))
	if ext == "" {
		return "", false
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, name := range r.order {
		if slices.Contains(r.formats[name].exts, ext) {
			return name, true
		}
	}
	return "", false
}

// Lookup resolves a decoder from content first and the file extension second.
func (r *Registry) Lookup(header []byte, path string) (string, Decoder, error) {
	name, ok := r.Detect(header)
	if !ok {
		name, ok = r.ByExtension(path)
	}
	if !ok {
		return "", nil, ErrUnknownFormat
	}

	d, _ := r.Get(name)
	return name, d, nil
}

func normExt(e string) string {
	return strings.ToLower(strings.TrimPrefix(e, "."))
}
