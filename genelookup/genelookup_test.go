package genelookup

import (
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/misotools/misobf"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

const (
	testGFFPath = "testdata/gene_lookup.mm10.gff3"
	seEvent     = "chr1:4774516:4775654:-@chr1:4772815:4772891:-@chr1:4767606:4772649:-"
)

func testEvent(t *testing.T, name, chrom, strand string) *misobf.Event {
	values := map[string]string{
		misobf.ColEventName: name,
		misobf.ColChrom:     chrom,
		misobf.ColStrand:    strand,
		misobf.ColIsoforms:  "['" + name + ".A','" + name + ".B']",
	}
	var line []string
	for _, col := range misobf.RequiredColumns {
		v, ok := values[col]
		if !ok {
			v = "0.5"
		}
		line = append(line, v)
	}
	ev, err := misobf.ParseEvent(strings.Join(line, "\t"), misobf.Header(misobf.RequiredColumns))
	assert.NoError(t, err)
	return ev
}

func TestRead(t *testing.T) {
	db, err := Read(vcontext.Background(), testGFFPath, DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, db.Len(), 5)
	g := db.GeneByID("ENSMUSG00000025903")
	assert.True(t, g != nil)
	expect.EQ(t, *g, Gene{
		ID: "ENSMUSG00000025903", Name: "Lypla1", Chrom: "chr1", Strand: "+", Start: 4807788, End: 4848410})
	expect.EQ(t, db.GeneByID("ENSMUSG00000000001").Name, "Gnai3-ps")
	expect.True(t, db.GeneByID(seEvent+".A") == nil)
}

func TestGenesAt(t *testing.T) {
	db, err := Read(vcontext.Background(), testGFFPath, DefaultOpts)
	assert.NoError(t, err)
	var names []string
	for _, g := range db.GenesAt("chr1", "+", 4845000) {
		names = append(names, g.Name)
	}
	expect.EQ(t, names, []string{"Lypla1", "Gm37988"})
	// Both ends are inclusive.
	expect.EQ(t, len(db.GenesAt("chr1", "+", 4807788)), 1)
	expect.EQ(t, len(db.GenesAt("chr1", "+", 4848410)), 2)
	expect.EQ(t, len(db.GenesAt("chr1", "+", 4807787)), 0)
	expect.EQ(t, len(db.GenesAt("chr1", "-", 4845000)), 1)
	expect.EQ(t, len(db.GenesAt("chr1", ".", 4845000)), 3)
	expect.EQ(t, len(db.GenesAt("chrX", "+", 4845000)), 0)
}

func TestLookup(t *testing.T) {
	db, err := Read(vcontext.Background(), testGFFPath, DefaultOpts)
	assert.NoError(t, err)

	// Exact match on the event ID.
	ev := testEvent(t, seEvent, "chr1", "-")
	gene, ok := db.Lookup(ev)
	expect.True(t, ok)
	expect.EQ(t, gene, "Mrpl15")

	// Coordinate overlap, same strand only.
	ev = testEvent(t, "chr1:4810000:4810100:+@chr1:4845000:4845100:+", "chr1", "+")
	gene, ok = db.Lookup(ev)
	expect.True(t, ok)
	expect.EQ(t, gene, "Gm37988,Lypla1")

	// Unstranded gene.
	ev = testEvent(t, "chr2:150:160:-", "chr2", "-")
	gene, ok = db.Lookup(ev)
	expect.True(t, ok)
	expect.EQ(t, gene, "Gnai3-ps")

	ev = testEvent(t, "chr3:150:160:-", "chr3", "-")
	_, ok = db.Lookup(ev)
	expect.False(t, ok)
	expect.False(t, db.Annotate(ev))
	_, ok = ev.Gene()
	expect.False(t, ok)

	ev = testEvent(t, "chr1:4810000:4810100:+", "chr1", "+")
	expect.True(t, db.Annotate(ev))
	gene, ok = ev.Gene()
	expect.True(t, ok)
	expect.EQ(t, gene, "Lypla1")
	expect.True(t, strings.HasSuffix(ev.String(), "\tLypla1"))
}

func TestLookupIgnoreStrand(t *testing.T) {
	opts := DefaultOpts
	opts.IgnoreStrand = true
	db, err := Read(vcontext.Background(), testGFFPath, opts)
	assert.NoError(t, err)
	ev := testEvent(t, "chr1:4810000:4810100:+@chr1:4845000:4845100:+", "chr1", "+")
	gene, ok := db.Lookup(ev)
	expect.True(t, ok)
	expect.EQ(t, gene, "Gm37988,Lypla1,Tcea1")
}

func TestReadFromErrors(t *testing.T) {
	_, err := ReadFrom(strings.NewReader("chr1\tsrc\tgene\t200\t100\t.\t+\t.\tID=g1\n"), DefaultOpts)
	require.Error(t, err)
	assert.HasSubstr(t, err.Error(), "ends before it starts")

	_, err = ReadFrom(strings.NewReader("chr1\tsrc\tgene\tabc\t100\t.\t+\t.\tID=g1\n"), DefaultOpts)
	require.Error(t, err)

	db, err := ReadFrom(strings.NewReader("##gff-version 3\n"), DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, db.Len(), 0)
}

func TestParseAttributes(t *testing.T) {
	attrs := map[string]string{"stale": "x"}
	parseAttributes(attrs, "ID=g1; Name=Foo%3Bbar;;flag;Note=a=b")
	expect.EQ(t, attrs, map[string]string{"ID": "g1", "Name": "Foo;bar", "Note": "a=b"})
}
