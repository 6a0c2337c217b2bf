package main

import (
	"io"

	"github.com/biogo/hts/sam"
	"github.com/golang-collections/collections/set"
	"github.com/pkg/errors"
)

// recordReader is the record source side of the container codec.
type recordReader interface {
	Read() (*sam.Record, error)
}

// annotator is the grouped streaming transform: it pulls records in order,
// buffers runs of records sharing a read name, derives the RX/MQ/MC tags per
// group and writes every record back out in its original position.
type annotator struct {
	addRx bool
	addMq bool
	addMc bool

	stats Stats
	seen  *set.Set // read names of groups already closed
}

func newAnnotator(addRx, addMq, addMc bool) (*annotator, error) {
	if !addRx && !addMq && !addMc {
		return nil, errors.New("nothing to do: at least one of RX, MQ or MC is required")
	}
	return &annotator{addRx: addRx, addMq: addMq, addMc: addMc, seen: set.New()}, nil
}

// grouped is true when the annotator needs read-name groups. An RX-only run
// works record by record and never buffers.
func (a *annotator) grouped() bool {
	return a.addMq || a.addMc
}

// run streams every record from src through the transform into sink.
func (a *annotator) run(src recordReader, sink recordWriter) error {
	if a.grouped() {
		return a.runGrouped(src, sink)
	}
	return a.runSingle(src, sink)
}

// runSingle is the lightweight RX-only path: one record in, one record out,
// no group buffer.
func (a *annotator) runSingle(src recordReader, sink recordWriter) error {
	for {
		rec, err := src.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "failed to read record")
		}
		a.stats.Reads++
		r := NewRecord(rec, a.stats.Reads)

		if err := a.annotateRx(r); err != nil {
			return err
		}
		if err := sink.Write(rec); err != nil {
			return errors.Wrapf(err, "failed to write %s", r)
		}

		if a.capped() {
			return nil
		}
	}
}

// runGrouped collects all records with the same read name in a slice and
// annotates them when the read name changes. The input must be grouped by
// read name; the buffer is unbounded by design, so an input repeating one
// read name N times holds N records in memory.
func (a *annotator) runGrouped(src recordReader, sink recordWriter) error {
	var group []*Record

	for {
		rec, err := src.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.Wrap(err, "failed to read record")
		}
		a.stats.Reads++
		r := NewRecord(rec, a.stats.Reads)

		// Read name changed, process the group, then start a new one
		if len(group) > 0 && group[0].Name != r.Name {
			if err := a.flush(group, sink); err != nil {
				return err
			}
			group = group[:0]
		}
		if len(group) == 0 {
			a.checkGrouped(r.Name)
		}
		group = append(group, r)

		if a.capped() {
			break
		}
	}

	return a.flush(group, sink)
}

// capped writes the periodic verbose progress line and reports whether the
// debug record cap was hit.
func (a *annotator) capped() bool {
	if conf.Verbose && a.stats.Reads%ShowEvery == 0 {
		sugar.Infof("%d records processed (RX: %d, MQ: %d, MC: %d)",
			a.stats.Reads, a.stats.RxAdded, a.stats.MqAdded, a.stats.McAdded)
	}
	if conf.Debug && a.stats.Reads >= MaxDebugReads {
		sugar.Warnf("debug mode, stopping after %d records", MaxDebugReads)
		return true
	}
	return false
}

// checkGrouped warns when a read name opens a second group, which means the
// input is not actually grouped by read name.
func (a *annotator) checkGrouped(name string) {
	if a.seen.Has(name) {
		a.stats.Regrouped++
		if a.stats.Regrouped <= 10 {
			sugar.Warnf("read name %s opens a second group, input does not appear to be grouped by read name", name)
		}
		return
	}
	a.seen.Insert(name)
}

// flush annotates a whole group, then writes it. Nothing is written when
// annotation fails, so a group reaches the output either complete or not at
// all.
func (a *annotator) flush(group []*Record, sink recordWriter) error {
	if len(group) == 0 {
		return nil
	}
	a.stats.Groups++

	if err := a.annotateGroup(group); err != nil {
		return err
	}
	for _, r := range group {
		if err := sink.Write(r.Record); err != nil {
			return errors.Wrapf(err, "failed to write %s", r)
		}
	}
	return nil
}

func (a *annotator) annotateGroup(group []*Record) error {
	switch len(group) {
	case 0:
		// No reads, nothing to do
		return nil
	case 1:
		return a.annotateSingleton(group[0])
	case 2:
		return a.annotatePair(group[0], group[1])
	default:
		return a.annotateMulti(group)
	}
}

// annotateSingleton handles a group with only one read: no mate exists, so
// the mate-derived tags degrade to neutral defaults.
func (a *annotator) annotateSingleton(r *Record) error {
	if err := a.annotateRx(r); err != nil {
		return err
	}
	if err := a.setMq(r, 0); err != nil {
		return err
	}
	return a.setMc(r, "")
}

// annotatePair cross-assigns the mate values between the two reads.
// Note: This is the most common case (assuming pair-end reads)
func (a *annotator) annotatePair(r1, r2 *Record) error {
	if err := a.annotateRx(r1); err != nil {
		return err
	}
	if err := a.annotateRx(r2); err != nil {
		return err
	}

	// MQ tag is the mapping quality of the mate read
	if err := a.setMq(r1, int(r2.MapQ)); err != nil {
		return err
	}
	if err := a.setMq(r2, int(r1.MapQ)); err != nil {
		return err
	}

	// MC tag is the CIGAR of the mate read
	if err := a.setMc(r1, r2.CigarString()); err != nil {
		return err
	}
	return a.setMc(r2, r1.CigarString())
}

// mateValues accumulates the representative mapping quality and CIGAR of one
// read-of-pair subset of a group.
type mateValues struct {
	mapQ    int
	cigar   string
	seen    bool
	primary bool
}

// update folds one record into the subset: maximum mapping quality, and the
// first non-secondary, non-supplementary CIGAR in stream order (or the first
// CIGAR seen while the subset holds no primary alignment).
func (m *mateValues) update(r *Record) {
	m.mapQ = maxInt(m.mapQ, int(r.MapQ))

	if pri := !r.IsSecondaryOrSupplementary(); !m.seen || (pri && !m.primary) {
		m.cigar = r.CigarString()
		m.primary = pri
		m.seen = true
	}
}

// annotateMulti handles groups of three or more records, i.e. read pairs
// with secondary or supplementary alignments sharing a read name.
func (a *annotator) annotateMulti(group []*Record) error {
	var m1, m2 mateValues
	ok := true

	for _, r := range group {
		if r.IsUnmapped() || r.IsMateUnmapped() {
			ok = false
		} else if r.IsRead1() {
			m1.update(r)
		} else if r.IsRead2() {
			m2.update(r)
		}
	}

	// An unmapped read anywhere in the group voids both mapping qualities.
	// The representative CIGARs stay as computed.
	if !ok {
		m1.mapQ, m2.mapQ = 0, 0
	}

	for _, r := range group {
		if err := a.annotateRx(r); err != nil {
			return err
		}

		// MQ and MC describe the mate, so each read receives the values of
		// the opposite read-of-pair subset.
		var mq int
		var mc string
		switch {
		case r.IsRead1():
			mq, mc = m2.mapQ, m2.cigar
		case r.IsRead2():
			mq, mc = m1.mapQ, m1.cigar
		default:
			a.stats.Orphans++
			sugar.Warnf("read %s is neither first nor second of pair", r)
		}

		if err := a.setMq(r, mq); err != nil {
			return err
		}
		if err := a.setMc(r, mc); err != nil {
			return err
		}
	}
	return nil
}

// annotateRx copies the UMI suffix of the read name into the RX tag. A read
// that already carries RX is left alone, even when its name has no UMI.
func (a *annotator) annotateRx(r *Record) error {
	if !a.addRx || r.HasTag(rxTag) {
		return nil
	}
	umi, err := umiFromName(r.Name)
	if err != nil {
		return errors.Wrapf(err, "%s", r)
	}
	if _, err := setTagIfAbsent(r.Record, rxTag, umi); err != nil {
		return errors.Wrapf(err, "failed to set RX on %s", r)
	}
	a.stats.RxAdded++
	return nil
}

// setMq adds the MQ tag, if it doesn't exist
func (a *annotator) setMq(r *Record, mapQ int) error {
	if !a.addMq {
		return nil
	}
	added, err := setTagIfAbsent(r.Record, mqTag, mapQ)
	if err != nil {
		return errors.Wrapf(err, "failed to set MQ on %s", r)
	}
	if added {
		a.stats.MqAdded++
	}
	return nil
}

// setMc adds the MC tag, if it doesn't exist
func (a *annotator) setMc(r *Record, cigar string) error {
	if !a.addMc {
		return nil
	}
	added, err := setTagIfAbsent(r.Record, mcTag, cigar)
	if err != nil {
		return errors.Wrapf(err, "failed to set MC on %s", r)
	}
	if added {
		a.stats.McAdded++
	}
	return nil
}
