// Package genelookup reads the gene annotation that accompanies a MISO event
// index (gene_lookup.<genome>.gff3) and assigns gene names to miso_bf events.
//
// An event is matched to a gene in one of two ways. If the annotation has a
// feature whose ID is the event name, that feature's gene is used. Otherwise
// every coordinate embedded in the event name is looked up in a per-chromosome
// interval tree, and the names of all genes on the event's strand that contain
// one of the coordinates are reported.
package genelookup

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/misotools/misobf"
)

// Opts controls how the annotation is read.
type Opts struct {
	// FeatureTypes lists the GFF3 feature types (column 3) that define genes.
	FeatureTypes []string
	// NameAttributes lists the attributes tried, in order, for the gene name.
	// The first nonempty one wins.
	NameAttributes []string
	// IgnoreStrand makes coordinate lookups match genes on either strand.
	IgnoreStrand bool
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{
	FeatureTypes:   []string{"gene"},
	NameAttributes: []string{"gsymbol", "Name", "gene_name", "ID"},
}

// Gene is one gene feature of the annotation. Start and End are 1-based and
// closed, as in the GFF3 file.
type Gene struct {
	ID     string
	Name   string
	Chrom  string
	Strand string
	Start  int
	End    int
}

// gffRecord is one line of a GFF3 file.
type gffRecord struct {
	Chrom      string
	Source     string
	Feature    string
	Start      int
	End        int
	Score      string // unused; often "."
	Strand     string
	Phase      string
	Attributes string
}

// geneInterval is a Gene stored in the interval tree. The tree range is
// half-open: [Start, End+1).
type geneInterval struct {
	id   uintptr
	gene *Gene
}

func (g geneInterval) Range() interval.IntRange {
	return interval.IntRange{Start: g.gene.Start, End: g.gene.End + 1}
}

func (g geneInterval) Overlap(b interval.IntRange) bool {
	return g.gene.End+1 > b.Start && g.gene.Start < b.End
}

func (g geneInterval) ID() uintptr { return g.id }

// position is a single-base query against the interval tree.
type position int

func (p position) Overlap(b interval.IntRange) bool {
	return int(p) < b.End && int(p)+1 > b.Start
}

// DB holds the genes of an annotation, indexed by ID and by position.
// Thread compatible: concurrent lookups are safe once Read returns.
type DB struct {
	opts  Opts
	genes []*Gene
	byID  map[string]*Gene
	trees map[string]*interval.IntTree
}

// Read reads the GFF3 annotation at path. Compressed files are decompressed
// based on the file name.
func Read(ctx context.Context, path string, opts Opts) (db *DB, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	if db, err = ReadFrom(inr, opts); err != nil {
		return nil, errors.E(err, path)
	}
	log.Printf("genelookup: read %d genes from %s", len(db.genes), path)
	return db, nil
}

// ReadFrom reads a GFF3 annotation from r.
func ReadFrom(r io.Reader, opts Opts) (*DB, error) {
	db := &DB{
		opts:  opts,
		byID:  map[string]*Gene{},
		trees: map[string]*interval.IntTree{},
	}
	featureTypes := map[string]bool{}
	for _, t := range opts.FeatureTypes {
		featureTypes[t] = true
	}
	scanner := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	var rec gffRecord
	attrs := map[string]string{}
	for {
		if err := scanner.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "read GFF3 annotation", err)
		}
		if !featureTypes[rec.Feature] {
			continue
		}
		if rec.End < rec.Start {
			return nil, errors.E(errors.Invalid,
				"GFF3 feature ends before it starts: "+rec.Chrom+":"+strconv.Itoa(rec.Start)+"-"+strconv.Itoa(rec.End))
		}
		parseAttributes(attrs, rec.Attributes)
		g := &Gene{
			ID:     attrs["ID"],
			Chrom:  rec.Chrom,
			Strand: rec.Strand,
			Start:  rec.Start,
			End:    rec.End,
		}
		for _, key := range opts.NameAttributes {
			if v := attrs[key]; v != "" {
				g.Name = v
				break
			}
		}
		if err := db.add(g); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (db *DB) add(g *Gene) error {
	if g.ID != "" {
		db.byID[g.ID] = g
	}
	tree := db.trees[g.Chrom]
	if tree == nil {
		tree = &interval.IntTree{}
		db.trees[g.Chrom] = tree
	}
	db.genes = append(db.genes, g)
	return tree.Insert(geneInterval{id: uintptr(len(db.genes)), gene: g}, false)
}

// parseAttributes parses the GFF3 attribute column ("ID=x;Name=y") into
// parsed, replacing its previous contents.
func parseAttributes(parsed map[string]string, attrs string) {
	for k := range parsed {
		delete(parsed, k)
	}
	for _, field := range strings.Split(attrs, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		v, err := url.PathUnescape(kv[1])
		if err != nil {
			v = kv[1]
		}
		parsed[kv[0]] = v
	}
}

// Len returns the number of genes in the DB.
func (db *DB) Len() int { return len(db.genes) }

// GeneByID returns the gene with the given ID, or nil.
func (db *DB) GeneByID(id string) *Gene { return db.byID[id] }

// GenesAt returns the genes on chrom that contain the 1-based position pos.
// strand is matched unless it, the gene strand, or Opts.IgnoreStrand says
// otherwise; "." and "" match any strand. The result is sorted by gene
// start, then ID.
func (db *DB) GenesAt(chrom, strand string, pos int) []*Gene {
	tree := db.trees[chrom]
	if tree == nil {
		return nil
	}
	var genes []*Gene
	for _, e := range tree.Get(position(pos)) {
		g := e.(geneInterval).gene
		if db.strandMatches(g.Strand, strand) {
			genes = append(genes, g)
		}
	}
	sort.Slice(genes, func(i, j int) bool {
		if genes[i].Start != genes[j].Start {
			return genes[i].Start < genes[j].Start
		}
		return genes[i].ID < genes[j].ID
	})
	return genes
}

func (db *DB) strandMatches(geneStrand, strand string) bool {
	if db.opts.IgnoreStrand {
		return true
	}
	if geneStrand == "." || geneStrand == "" || strand == "." || strand == "" {
		return true
	}
	return geneStrand == strand
}

// Lookup returns the gene name(s) for ev. Multiple genes are sorted and
// joined with ",". ok is false if no gene matches.
func (db *DB) Lookup(ev *misobf.Event) (gene string, ok bool) {
	if g := db.byID[ev.Name()]; g != nil && g.Name != "" {
		return g.Name, true
	}
	names := map[string]bool{}
	for _, coord := range ev.EventCoords() {
		pos, err := strconv.Atoi(coord)
		if err != nil {
			// Too large to be a genomic position.
			continue
		}
		for _, g := range db.GenesAt(ev.Chrom(), ev.Strand(), pos) {
			if g.Name != "" {
				names[g.Name] = true
			}
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ","), true
}

// Annotate attaches the gene found by Lookup to ev. It returns false, leaving
// ev unchanged, if no gene matches.
func (db *DB) Annotate(ev *misobf.Event) bool {
	gene, ok := db.Lookup(ev)
	if ok {
		ev.AddGene(gene)
	}
	return ok
}
