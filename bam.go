package main

import (
	"bufio"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Stdio is the path sentinel for reading from stdin or writing to stdout.
const Stdio = "-"

// bamSource reads alignment records from a BAM file or from stdin.
type bamSource struct {
	f   *os.File
	r   *bam.Reader
	bar *progressbar.ProgressBar
}

// openSource opens path as a BAM stream. The header is read here; a missing
// or corrupt header surfaces as an error before any record is touched.
func openSource(path string) (*bamSource, error) {
	src := &bamSource{}

	var rd io.Reader = os.Stdin
	if path != Stdio {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		src.f = f
		rd = f

		if conf.Verbose {
			if stats, err := f.Stat(); err == nil && stats.Mode().IsRegular() {
				src.bar = progressbar.DefaultBytes(
					stats.Size(),
					"processing",
				)
				rd = io.TeeReader(f, src.bar)
			}
		}
	}

	r, err := bam.NewReader(rd, 1)
	if err != nil {
		if src.f != nil {
			src.f.Close()
		}
		return nil, errors.Wrapf(err, "failed to read BAM from %s", path)
	}
	src.r = r
	return src, nil
}

// Header returns the header read from the source. It is passed to the sink
// unmodified and never inspected by the annotator.
func (s *bamSource) Header() *sam.Header {
	return s.r.Header()
}

// Read returns the next record, or io.EOF at end of stream.
func (s *bamSource) Read() (*sam.Record, error) {
	return s.r.Read()
}

func (s *bamSource) Close() error {
	if s.bar != nil {
		s.bar.Finish()
	}
	var err error
	if s.r != nil {
		err = s.r.Close()
	}
	if s.f != nil {
		if nerr := s.f.Close(); err == nil {
			err = nerr
		}
	}
	return err
}

// recordWriter is the record sink side of the container codec.
type recordWriter interface {
	Write(*sam.Record) error
}

// bamSink writes alignment records to a BAM or SAM file or to stdout. The
// header is written once, when the sink is opened.
type bamSink struct {
	f   *os.File
	buf *bufio.Writer
	bw  *bam.Writer
	w   recordWriter
}

func openSink(path string, h *sam.Header) (*bamSink, error) {
	sink := &bamSink{}

	var out io.Writer = os.Stdout
	if path != Stdio {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", path)
		}
		sink.f = f
		out = f
	}

	if conf.Sam {
		sink.buf = bufio.NewWriter(out)
		w, err := sam.NewWriter(sink.buf, h, sam.FlagDecimal)
		if err != nil {
			sink.Close()
			return nil, errors.Wrapf(err, "failed to write SAM to %s", path)
		}
		sink.w = w
	} else {
		bw, err := bam.NewWriterLevel(out, h, conf.Comp, 1)
		if err != nil {
			sink.Close()
			return nil, errors.Wrapf(err, "failed to write BAM to %s", path)
		}
		sink.bw = bw
		sink.w = bw
	}
	return sink, nil
}

func (s *bamSink) Write(rec *sam.Record) error {
	return s.w.Write(rec)
}

// Close flushes buffered compressed output. It must run on every exit path,
// error paths included, or the output file ends up truncated.
func (s *bamSink) Close() error {
	var err error
	if s.bw != nil {
		err = s.bw.Close()
	}
	if s.buf != nil {
		if nerr := s.buf.Flush(); err == nil {
			err = nerr
		}
	}
	if s.f != nil {
		if nerr := s.f.Close(); err == nil {
			err = nerr
		}
	}
	return err
}
