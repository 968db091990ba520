package misobf

import (
	"strings"

	"github.com/grailbio/base/errors"
)

// Column names that must appear in the header of a miso_bf file.
const (
	ColEventName             = "event_name"
	ColSample1PosteriorMean  = "sample1_posterior_mean"
	ColSample2PosteriorMean  = "sample2_posterior_mean"
	ColSample1CILow          = "sample1_ci_low"
	ColSample1CIHigh         = "sample1_ci_high"
	ColSample2CILow          = "sample2_ci_low"
	ColSample2CIHigh         = "sample2_ci_high"
	ColDiff                  = "diff"
	ColBayesFactor           = "bayes_factor"
	ColIsoforms              = "isoforms"
	ColSample1Counts         = "sample1_counts"
	ColSample2Counts         = "sample2_counts"
	ColSample1AssignedCounts = "sample1_assigned_counts"
	ColSample2AssignedCounts = "sample2_assigned_counts"
	ColChrom                 = "chrom"
	ColStrand                = "strand"
	ColMRNAStarts            = "mRNA_starts"
	ColMRNAEnds              = "mRNA_ends"
)

// RequiredColumns lists the header columns ParseEvent reads, in the order
// compare_miso writes them.
var RequiredColumns = []string{
	ColEventName,
	ColSample1PosteriorMean, ColSample1CILow, ColSample1CIHigh,
	ColSample2PosteriorMean, ColSample2CILow, ColSample2CIHigh,
	ColDiff, ColBayesFactor, ColIsoforms,
	ColSample1Counts, ColSample1AssignedCounts,
	ColSample2Counts, ColSample2AssignedCounts,
	ColChrom, ColStrand, ColMRNAStarts, ColMRNAEnds,
}

// Header is the ordered list of column names of a miso_bf file. It is shared,
// read-only, by every ParseEvent call on lines of the same file.
type Header []string

// ParseHeader splits a header line on runs of whitespace.
func ParseHeader(line string) Header {
	return Header(strings.Fields(line))
}

// Validate checks that every column in RequiredColumns is present. ParseEvent
// reports the same problem lazily; Validate lets a reader fail before it
// touches any data line.
func (h Header) Validate() error {
	seen := make(map[string]bool, len(h))
	for _, name := range h {
		seen[name] = true
	}
	for _, name := range RequiredColumns {
		if !seen[name] {
			return errors.E(KindMissingField, "header is missing column "+name)
		}
	}
	return nil
}

// fieldMap holds one data line keyed by column name.
type fieldMap map[string]string

func (h Header) zip(values []string) fieldMap {
	m := make(fieldMap, len(h))
	for i, name := range h {
		m[name] = values[i]
	}
	return m
}

// get returns the value of the named column. A column absent from the header
// is an error, never an empty value.
func (m fieldMap) get(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.E(KindMissingField, "header is missing column "+name)
	}
	return v, nil
}
