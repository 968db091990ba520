package main

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/misotools/genelookup"
	"github.com/grailbio/misotools/misobf"
	"github.com/klauspost/compress/gzip"
)

type reformatOpts struct {
	compPath         string
	genePath         string
	outPath          string
	filteredPath     string
	bayesCutoff      float64
	negativeDiffOnly bool
	ignoreStrand     bool
	skipMalformed    bool
	// all makes view print every event. Unused by reformat.
	all bool
}

// Stats summarizes one run.
type Stats struct {
	// Events is the number of events read.
	Events int
	// Malformed is the number of lines skipped by -skip-malformed.
	Malformed int
	// Annotated is the number of events a gene was attached to.
	Annotated int
	// Passed is the number of events that passed the filter.
	Passed int
}

func (opts reformatOpts) passes(ev *misobf.Event) bool {
	if !ev.PassesBayesFilter(opts.bayesCutoff) {
		return false
	}
	return !opts.negativeDiffOnly || ev.HasNegativeDiff()
}

// defaultFilteredPath derives the filtered output path from the main one:
// "x/bygene.miso_bf" becomes "x/bygene_b100.0.miso_bf".
func defaultFilteredPath(outPath string, cutoff float64) string {
	base, gz := outPath, ""
	if strings.HasSuffix(base, ".gz") {
		base, gz = strings.TrimSuffix(base, ".gz"), ".gz"
	}
	base = strings.TrimSuffix(base, ".miso_bf")
	return base + "_b" + misobf.FormatFloat(cutoff) + ".miso_bf" + gz
}

// eventOutput is an output file of events, gzip-compressed if its name ends
// in .gz.
type eventOutput struct {
	path string
	out  file.File
	gz   *gzip.Writer
	w    *misobf.Writer
}

func createEventOutput(ctx context.Context, path string) (*eventOutput, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	o := &eventOutput{path: path, out: out}
	var w io.Writer = out.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		o.gz = gzip.NewWriter(w)
		w = o.gz
	}
	o.w = misobf.NewWriter(w)
	return o, nil
}

func (o *eventOutput) Close(ctx context.Context) error {
	e := errors.Once{}
	e.Set(o.w.Flush())
	if o.gz != nil {
		e.Set(o.gz.Close())
	}
	e.Set(o.out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, "close", o.path)
	}
	log.Printf("Wrote %d events to %s", o.w.Count(), o.path)
	return nil
}

func readGeneDB(ctx context.Context, opts reformatOpts) (*genelookup.DB, error) {
	if opts.genePath == "" {
		return nil, nil
	}
	geneOpts := genelookup.DefaultOpts
	geneOpts.IgnoreStrand = opts.ignoreStrand
	return genelookup.Read(ctx, opts.genePath, geneOpts)
}

// forEachEvent reads opts.compPath, attaches genes, and calls fn for every
// event.
func forEachEvent(ctx context.Context, opts reformatOpts, fn func(ev *misobf.Event) error) (stats Stats, err error) {
	geneDB, err := readGeneDB(ctx, opts)
	if err != nil {
		return stats, err
	}
	r, err := misobf.Open(ctx, opts.compPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if e := r.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	r.SkipMalformed = opts.skipMalformed
	for r.Scan() {
		ev := r.Event()
		stats.Events++
		if geneDB != nil && geneDB.Annotate(ev) {
			stats.Annotated++
		}
		if opts.passes(ev) {
			stats.Passed++
		}
		if err = fn(ev); err != nil {
			return stats, err
		}
	}
	stats.Malformed = r.Skipped()
	if err = r.Err(); err != nil {
		return stats, errors.E(err, opts.compPath)
	}
	return stats, nil
}

// reformat implements the reformat command.
func reformat(ctx context.Context, opts reformatOpts) (stats Stats, err error) {
	if opts.filteredPath == "" {
		opts.filteredPath = defaultFilteredPath(opts.outPath, opts.bayesCutoff)
	}
	all, err := createEventOutput(ctx, opts.outPath)
	if err != nil {
		return stats, err
	}
	filtered, err := createEventOutput(ctx, opts.filteredPath)
	if err != nil {
		all.Close(ctx) // nolint: errcheck
		return stats, err
	}
	stats, err = forEachEvent(ctx, opts, func(ev *misobf.Event) error {
		if err := all.w.Write(ev); err != nil {
			return err
		}
		if opts.passes(ev) {
			return filtered.w.Write(ev)
		}
		return nil
	})
	e := errors.Once{}
	e.Set(err)
	e.Set(all.Close(ctx))
	e.Set(filtered.Close(ctx))
	log.Printf("Stats: %+v", stats)
	return stats, e.Err()
}

// view implements the view command.
func view(ctx context.Context, out io.Writer, opts reformatOpts) (Stats, error) {
	w := misobf.NewWriter(out)
	stats, err := forEachEvent(ctx, opts, func(ev *misobf.Event) error {
		if opts.all || opts.passes(ev) {
			return w.Write(ev)
		}
		return nil
	})
	if e := w.Flush(); e != nil && err == nil {
		err = e
	}
	log.Debug.Printf("Stats: %+v", stats)
	return stats, err
}
