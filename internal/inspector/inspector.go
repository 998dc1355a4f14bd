// Package inspector reports whether a JPEG carries its SOI signature, ends
// with its EOI terminator, and shows the tail repetition left behind by an
// interrupted transfer. It never decodes image data and never modifies the
// inspected source.
package inspector

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BrunoKrugel/jpegcheck/internal/utils"
)

// Result holds the three facts computed for a source.
type Result struct {
	SignatureValid    bool `json:"signature_valid"`
	TerminatorPresent bool `json:"terminator_present"`
	Corrupt           bool `json:"corrupt"`
}

// Inspector holds the cached result of inspecting one source.
type Inspector struct {
	name      string
	size      int64
	threshold int
	result    Result
	load      func() ([]byte, error)

	dumpOnce sync.Once
	dump     string
	dumpErr  error
}

// Open inspects the file at path. The file is opened, read at most three
// times near its head and tail, and closed before Open returns.
func Open(path string, opts ...Option) (*Inspector, error) {
	o := buildOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PathError{Op: "open", Path: path, Err: ErrNotFound}
		}
		return nil, ioFailure("stat", path, err)
	}
	if info.IsDir() {
		return nil, invalidf("open", path, "is a directory")
	}
	if o.name == "" {
		o.name = filepath.Base(path)
	}
	if err := o.validate(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PathError{Op: "open", Path: path, Err: ErrNotFound}
		}
		return nil, ioFailure("open", path, err)
	}
	defer f.Close()

	res, err := inspect(f, info.Size(), path, o)
	if err != nil {
		return nil, err
	}

	return &Inspector{
		name:      path,
		size:      info.Size(),
		threshold: o.threshold,
		result:    res,
		load:      func() ([]byte, error) { return os.ReadFile(path) },
	}, nil
}

// New inspects size bytes of src. The caller keeps ownership of src; it must
// stay readable for HexDump to succeed.
func New(src io.ReaderAt, size int64, opts ...Option) (*Inspector, error) {
	o := buildOptions(opts)
	if src == nil {
		return nil, invalidf("inspect", o.name, "nil source")
	}
	if size < 0 {
		return nil, invalidf("inspect", o.name, "negative size %d", size)
	}
	if err := o.validate(o.name); err != nil {
		return nil, err
	}

	res, err := inspect(src, size, o.name, o)
	if err != nil {
		return nil, err
	}

	return &Inspector{
		name:      o.name,
		size:      size,
		threshold: o.threshold,
		result:    res,
		load: func() ([]byte, error) {
			return io.ReadAll(io.NewSectionReader(src, 0, size))
		},
	}, nil
}

// FromBytes inspects an in-memory buffer.
func FromBytes(data []byte, opts ...Option) (*Inspector, error) {
	return New(bytes.NewReader(data), int64(len(data)), opts...)
}

func (o options) validate(path string) error {
	if o.threshold <= 0 {
		return invalidf("inspect", path, "threshold must be positive, got %d", o.threshold)
	}
	if !o.ignoreExtension && o.name != "" && utils.HasDisallowedExtension(o.name) {
		return invalidf("inspect", path, "not a jpeg extension %q", filepath.Ext(o.name))
	}
	return nil
}

func inspect(r io.ReaderAt, size int64, path string, o options) (Result, error) {
	var res Result

	head := make([]byte, len(startOfImage))
	if err := readFull(r, head[:min(int64(len(head)), size)], 0); err != nil {
		return res, ioFailure("read signature", path, err)
	}
	res.SignatureValid = startOfImage.matchHead(head)

	// A source shorter than the marker leaves the trailing positions zeroed.
	tail := make([]byte, len(endOfImage))
	n := min(int64(len(tail)), size)
	if err := readFull(r, tail[:n], size-n); err != nil {
		return res, ioFailure("read terminator", path, err)
	}
	res.TerminatorPresent = endOfImage.matchTail(tail)

	if !res.TerminatorPresent {
		res.Corrupt = true
		return res, nil
	}

	w := min(int64(o.threshold+len(endOfImage)), size)
	window := make([]byte, w)
	if err := readFull(r, window, size-w); err != nil {
		return res, ioFailure("read tail window", path, err)
	}
	res.Corrupt = repetitionCount(window) > 2

	return res, nil
}

func readFull(r io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Name returns the path or name the source was inspected under.
func (in *Inspector) Name() string { return in.name }

// Size returns the length of the inspected source in bytes.
func (in *Inspector) Size() int64 { return in.size }

// Threshold returns the tail window size used by the corruption heuristic.
func (in *Inspector) Threshold() int { return in.threshold }

// Result returns all three facts at once.
func (in *Inspector) Result() Result { return in.result }

// SignatureValid reports whether the source starts with FF D8 FF.
func (in *Inspector) SignatureValid() bool { return in.result.SignatureValid }

// TerminatorPresent reports whether the source ends with FF D9.
func (in *Inspector) TerminatorPresent() bool { return in.result.TerminatorPresent }

// Corrupt reports whether the source is incomplete or its tail repeats.
func (in *Inspector) Corrupt() bool { return in.result.Corrupt }

// HexDump renders the whole source, 16 bytes per line. The dump, or the
// error reading the source, is computed on first call and cached.
func (in *Inspector) HexDump() (string, error) {
	in.dumpOnce.Do(func() {
		data, err := in.load()
		if err != nil {
			in.dumpErr = ioFailure("hexdump", in.name, err)
			return
		}
		in.dump = hexDump(data)
	})
	return in.dump, in.dumpErr
}
