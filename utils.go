package main

import (
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

// errNoUMI reports a read name without the ':'-separated UMI suffix.
var errNoUMI = errors.New("could not find ':' in read name")

func maxInt(i, j int) int {
	if i > j {
		return i
	}
	return j
}

// umiFromName returns the UMI, the last entry in the read name when
// splitting by ':'.
// Example:
//	Read name: A00324:79:HJ5CMDSXX:2:1101:19705:1172:CGCACG
//	UMI      : CGCACG
func umiFromName(name string) (string, error) {
	idx := strings.LastIndex(name, ":")
	if idx < 0 {
		return "", errNoUMI
	}
	return name[idx+1:], nil
}

// setTagIfAbsent appends tag=value to the record unless the tag is already
// present, and reports whether it was added. A present tag is never
// overwritten.
func setTagIfAbsent(rec *sam.Record, tag sam.Tag, value interface{}) (bool, error) {
	if _, ok := rec.Tag(tag[:]); ok {
		return false, nil
	}
	aux, err := sam.NewAux(tag, value)
	if err != nil {
		return false, errors.Wrapf(err, "failed to build %v tag", tag)
	}
	rec.AuxFields = append(rec.AuxFields, aux)
	return true, nil
}
