package main

import (
	"fmt"
	"time"

	"github.com/biogo/hts/sam"
	"github.com/voxelbrain/goptions"
	"go.uber.org/zap"
)

var logger *zap.Logger
var sugar *zap.SugaredLogger
var conf config

const (
	// VERSION is just the version number
	VERSION = "0.2.1"

	// ShowEvery is how often the verbose progress line is written
	ShowEvery = 100000

	// MaxDebugReads is the record cap in debug mode
	MaxDebugReads = 100000
)

// Tags written by the annotator.
var (
	rxTag = sam.NewTag("RX")
	mqTag = sam.NewTag("MQ")
	mcTag = sam.NewTag("MC")
)

type config struct {
	Input   string        `goptions:"-i, --in, description='Input BAM file, - for stdin'"`
	Output  string        `goptions:"-o, --out, description='Output file, - for stdout'"`
	Rx      bool          `goptions:"--rx, description='Add RX tag with the UMI from the read name'"`
	Mq      bool          `goptions:"--mq, description='Add MQ tag with the mate mapping quality'"`
	Mc      bool          `goptions:"--mc, description='Add MC tag with the mate CIGAR'"`
	Sam     bool          `goptions:"-s, --sam, description='Write SAM text instead of BAM'"`
	Comp    int           `goptions:"--comp, description='BAM compression level 0-9, ignored with --sam'"`
	Debug   bool          `goptions:"--debug, description='Show debug info and stop after 100000 records'"`
	Verbose bool          `goptions:"--verbose, description='Report progress every 100000 records'"`
	Version bool          `goptions:"-v, --version, description='Show version'"`
	Log     string        `goptions:"--log, description='Save log to file'"`
	Help    goptions.Help `goptions:"-h, --help, description='Show this help'"`
}

func defaultConfig() config {
	return config{Input: "-", Output: "-", Comp: -1}
}

// Record is a wrap of sam.Record. Num is the 1-based position of the record
// in the input stream, kept for error messages.
type Record struct {
	Name   string
	MapQ   byte
	Flags  sam.Flags
	Num    int64
	Record *sam.Record
}

// NewRecord is function that create a pointer to record
func NewRecord(record *sam.Record, num int64) *Record {
	return &Record{
		Name: record.Name, MapQ: record.MapQ,
		Flags: record.Flags, Num: num, Record: record,
	}
}

// String as name says
func (r *Record) String() string {
	return fmt.Sprintf("%s (record %d)", r.Name, r.Num)
}

// IsRead1 is true if this is the first read of a pair
func (r *Record) IsRead1() bool {
	return r.Flags&sam.Read1 != 0
}

// IsRead2 is true if this is the second read of a pair
func (r *Record) IsRead2() bool {
	return r.Flags&sam.Read2 != 0
}

// IsUnmapped is true if this read is not aligned
func (r *Record) IsUnmapped() bool {
	return r.Flags&sam.Unmapped != 0
}

// IsMateUnmapped is true if the mate of this read is not aligned
func (r *Record) IsMateUnmapped() bool {
	return r.Flags&sam.MateUnmapped != 0
}

// IsSecondaryOrSupplementary is true for any non-primary alignment
func (r *Record) IsSecondaryOrSupplementary() bool {
	return r.Flags&sam.Secondary != 0 || r.Flags&sam.Supplementary != 0
}

// CigarString is the CIGAR of this alignment in text form
func (r *Record) CigarString() string {
	return r.Record.Cigar.String()
}

// HasTag is true if the auxiliary tag is already present on this record
func (r *Record) HasTag(tag sam.Tag) bool {
	_, ok := r.Record.Tag(tag[:])
	return ok
}

// Stats keeps the run-wide counters reported at the end of a run. The
// counters live on the annotator instance, not in globals, so several runs
// can share one process.
type Stats struct {
	Reads     int64
	Groups    int64
	RxAdded   int64
	MqAdded   int64
	McAdded   int64
	Orphans   int64
	Regrouped int64
}

//TicTocTimer is structure for timer
type TicTocTimer struct {
	duration time.Duration
	start    time.Time
	repeats  int64
}

//InitTimer is constructor with default values for timer
func InitTimer() *TicTocTimer {
	return &TicTocTimer{duration: 0, start: time.Now(), repeats: 0}
}

// Tic is start timer
func (timer *TicTocTimer) Tic() {
	timer.start = time.Now()
}

//Toc is pause timer
func (timer *TicTocTimer) Toc() {
	timer.duration += time.Now().Sub(timer.start)
	timer.repeats++
}

//TicToc is total time of timer
func (timer *TicTocTimer) TicToc() time.Duration {
	return timer.duration
}
