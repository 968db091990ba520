package misobf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/grailbio/base/errors"
)

// DefaultBayesCutoff is the Bayes factor cutoff used by the reformat step of
// the pipeline (bygene_b100.0.miso_bf).
const DefaultBayesCutoff = 100.0

// Pair holds one value per sample, as text.
type Pair struct {
	Sample1, Sample2 string
}

// Interval is a confidence interval, as text.
type Interval struct {
	Low, High string
}

// Coords holds the mRNA_starts and mRNA_ends columns, as text.
type Coords struct {
	Starts, Ends string
}

// Event is one line of a miso_bf file. Apart from the gene, which callers may
// attach after the fact, an Event does not change once parsed.
type Event struct {
	name           string
	posteriorMean  Pair
	ci             [2]Interval
	diff           float64
	bayes          float64
	isoforms       []string
	counts         Pair
	assignedCounts Pair
	chrom          string
	strand         string
	coords         Coords

	gene    string
	hasGene bool
}

var wordRE = regexp.MustCompile(`\w+`)

// ParseEvent parses one data line of a miso_bf file. The line is trimmed of
// trailing whitespace and split on runs of whitespace; the number of fields
// must equal len(header).
//
// Errors are classified by IsInvalidArgument, IsMalformed and IsMissingField.
func ParseEvent(line string, header Header) (*Event, error) {
	if !utf8.ValidString(line) || strings.IndexByte(line, 0) >= 0 {
		return nil, errors.E(KindInvalidArgument, "miso_bf line must be text")
	}
	values := strings.Fields(strings.TrimRightFunc(line, isSpace))
	if len(header) != len(values) {
		return nil, errors.E(KindMalformed,
			fmt.Sprintf("%d number of fields in header but %d number of fields in line", len(header), len(values)))
	}
	m := header.zip(values)
	var (
		e   = &Event{}
		err error
	)
	// get records the first lookup failure; later lookups become no-ops.
	get := func(name string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = m.get(name)
		return v
	}
	e.name = get(ColEventName)
	e.posteriorMean = Pair{get(ColSample1PosteriorMean), get(ColSample2PosteriorMean)}
	e.ci[0] = Interval{get(ColSample1CILow), get(ColSample1CIHigh)}
	e.ci[1] = Interval{get(ColSample2CILow), get(ColSample2CIHigh)}
	diff := get(ColDiff)
	bayes := get(ColBayesFactor)
	isoforms := get(ColIsoforms)
	e.counts = Pair{get(ColSample1Counts), get(ColSample2Counts)}
	e.assignedCounts = Pair{get(ColSample1AssignedCounts), get(ColSample2AssignedCounts)}
	e.chrom = get(ColChrom)
	e.strand = get(ColStrand)
	e.coords = Coords{get(ColMRNAStarts), get(ColMRNAEnds)}
	if err != nil {
		return nil, err
	}
	if e.diff, err = strconv.ParseFloat(diff, 64); err != nil {
		return nil, errors.E(KindMalformed, "parse "+ColDiff, err)
	}
	if e.bayes, err = strconv.ParseFloat(bayes, 64); err != nil {
		return nil, errors.E(KindMalformed, "parse "+ColBayesFactor, err)
	}
	e.isoforms = ParseIsoforms(isoforms)
	return e, nil
}

// ParseEventWithGene is ParseEvent followed by AddGene(gene).
func ParseEventWithGene(line string, header Header, gene string) (*Event, error) {
	e, err := ParseEvent(line, header)
	if err != nil {
		return nil, err
	}
	e.AddGene(gene)
	return e, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// ParseIsoforms splits the isoforms column, e.g. "'iso1','iso2'", into
// isoform names. The column is split on single quotes and only pieces longer
// than one byte are kept, so the "," and "[" "]" separators drop out.
//
// Isoform names of a single character, or names containing a quote, are not
// recovered correctly.
func ParseIsoforms(s string) []string {
	var isoforms []string
	for _, item := range strings.Split(s, "'") {
		if len(item) > 1 {
			isoforms = append(isoforms, item)
		}
	}
	return isoforms
}

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// PosteriorMean returns the per-sample posterior means.
func (e *Event) PosteriorMean() Pair { return e.posteriorMean }

// ConfidenceIntervals returns the confidence interval of each sample.
func (e *Event) ConfidenceIntervals() (sample1, sample2 Interval) { return e.ci[0], e.ci[1] }

// Diff returns sample1_posterior_mean - sample2_posterior_mean as computed by
// MISO.
func (e *Event) Diff() float64 { return e.diff }

// BayesFactor returns the Bayes factor.
func (e *Event) BayesFactor() float64 { return e.bayes }

// Isoforms returns the isoform names. The caller must not modify the result.
func (e *Event) Isoforms() []string { return e.isoforms }

// Counts returns the per-sample read class counts.
func (e *Event) Counts() Pair { return e.counts }

// AssignedCounts returns the per-sample assigned counts.
func (e *Event) AssignedCounts() Pair { return e.assignedCounts }

// Chrom returns the chromosome name.
func (e *Event) Chrom() string { return e.chrom }

// Strand returns the strand, normally "+" or "-". It is not validated.
func (e *Event) Strand() string { return e.strand }

// MRNACoords returns the mRNA_starts and mRNA_ends columns.
func (e *Event) MRNACoords() Coords { return e.coords }

// Gene returns the gene attached by AddGene. ok is false if no gene has been
// attached.
func (e *Event) Gene() (gene string, ok bool) { return e.gene, e.hasGene }

// AddGene attaches a gene name. A second call replaces the first.
func (e *Event) AddGene(gene string) {
	e.gene = gene
	e.hasGene = true
}

// PassesBayesFilter reports whether the Bayes factor is strictly greater than
// cutoff.
func (e *Event) PassesBayesFilter(cutoff float64) bool { return e.bayes > cutoff }

// HasNegativeDiff reports whether diff is strictly negative.
func (e *Event) HasNegativeDiff() bool { return e.diff < 0 }

// NameTokens returns every run of word characters ([0-9A-Za-z_]) in the event
// name, in order and including duplicates. For "chr1:+:100:200@gene1" it
// returns [chr1 100 200 gene1].
func (e *Event) NameTokens() []string {
	return wordRE.FindAllString(e.name, -1)
}

// EventCoords returns the tokens of the event name that consist only of
// decimal digits.
func (e *Event) EventCoords() []string {
	var coords []string
	for _, tok := range e.NameTokens() {
		if isDigits(tok) {
			coords = append(coords, tok)
		}
	}
	return coords
}

// FullCoords returns EventCoords as "chrom:strand:coord" strings.
func (e *Event) FullCoords() []string {
	coords := e.EventCoords()
	full := make([]string, len(coords))
	for i, c := range coords {
		full[i] = strings.Join([]string{e.chrom, e.strand, c}, ":")
	}
	return full
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
