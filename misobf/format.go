package misobf

import (
	"math"
	"strconv"
	"strings"
)

// Fields returns the columns of the reformatted line: name, chrom, strand,
// Bayes factor, diff, one column per isoform (a single empty column when there
// are none), and the gene if a nonempty one is attached. Joining Fields with
// tabs yields String.
func (e *Event) Fields() []string {
	fields := make([]string, 0, 7+len(e.isoforms))
	fields = append(fields, e.name, e.chrom, e.strand, FormatFloat(e.bayes), FormatFloat(e.diff))
	if len(e.isoforms) == 0 {
		fields = append(fields, "")
	}
	fields = append(fields, e.isoforms...)
	if e.gene != "" {
		fields = append(fields, e.gene)
	}
	return fields
}

// String returns the reformatted line, tab separated, without a newline. The
// gene column is present only when a nonempty gene is attached.
func (e *Event) String() string {
	summary := strings.Join([]string{
		e.name, e.chrom, e.strand, FormatFloat(e.bayes), FormatFloat(e.diff),
		strings.Join(e.isoforms, "\t")}, "\t")
	if e.gene == "" {
		return summary
	}
	return summary + "\t" + e.gene
}

// FormatFloat renders f the way the rest of the pipeline prints floats: fixed
// notation with at least one fractional digit for 1e-4 <= |f| < 1e16 ("100.0",
// "-0.25"), shortest exponent notation otherwise ("1e+16", "1.5e-05").
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	if abs := math.Abs(f); abs >= 1e-4 && abs < 1e16 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if strings.IndexByte(s, '.') < 0 {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}
