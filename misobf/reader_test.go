package misobf

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFile(lines ...string) string {
	return testHeaderLine + "\n" + strings.Join(lines, "")
}

func readAll(t *testing.T, r *Reader) []*Event {
	var events []*Event
	for r.Scan() {
		events = append(events, r.Event())
	}
	return events
}

func TestReader(t *testing.T) {
	data := "\n" + testFile(testLine("0.5", "150"), "\n", "   \n", testLine("-0.2", "3"))
	r, err := NewReader(strings.NewReader(data))
	assert.NoError(t, err)
	expect.EQ(t, r.Header(), Header(RequiredColumns))
	events := readAll(t, r)
	assert.NoError(t, r.Err())
	assert.EQ(t, len(events), 2)
	expect.EQ(t, events[0].BayesFactor(), 150.0)
	expect.EQ(t, events[1].Diff(), -0.2)
	expect.EQ(t, r.Skipped(), 0)
	assert.NoError(t, r.Close(vcontext.Background()))
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(strings.NewReader(""))
	require.Error(t, err)
	tassert.True(t, IsMalformed(err))

	_, err = NewReader(strings.NewReader("event_name\tdiff\n"))
	require.Error(t, err)
	tassert.True(t, IsMissingField(err))

	data := testFile(testLine("0.5", "150"), "chr1\t1\n", testLine("-0.2", "3"))
	r, err := NewReader(strings.NewReader(data))
	assert.NoError(t, err)
	events := readAll(t, r)
	expect.EQ(t, len(events), 1)
	require.Error(t, r.Err())
	tassert.True(t, IsMalformed(r.Err()))
	tassert.Contains(t, r.Err().Error(), "line 3")
	expect.False(t, r.Scan())

	r, err = NewReader(strings.NewReader(data))
	assert.NoError(t, err)
	r.SkipMalformed = true
	events = readAll(t, r)
	assert.NoError(t, r.Err())
	expect.EQ(t, len(events), 2)
	expect.EQ(t, r.Skipped(), 1)
}

func TestOpen(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	data := testFile(testLine("0.5", "150"), testLine("-0.2", "3"))
	plainPath := filepath.Join(tempDir, "miso_vs_miso.miso_bf")
	assert.NoError(t, ioutil.WriteFile(plainPath, []byte(data), 0644))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(data))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	gzPath := filepath.Join(tempDir, "miso_vs_miso.miso_bf.gz")
	assert.NoError(t, ioutil.WriteFile(gzPath, buf.Bytes(), 0644))

	for _, path := range []string{plainPath, gzPath} {
		r, err := Open(ctx, path)
		assert.NoError(t, err, path)
		events := readAll(t, r)
		assert.NoError(t, r.Err())
		assert.NoError(t, r.Close(ctx))
		expect.EQ(t, len(events), 2, path)
		expect.EQ(t, events[0].BayesFactor(), 150.0, path)
	}

	_, err = Open(ctx, filepath.Join(tempDir, "nonexistent.miso_bf"))
	tassert.Error(t, err)
}

func TestParseLines(t *testing.T) {
	header := ParseHeader(testHeaderLine)
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, testLine(FormatFloat(float64(i)), "10"))
	}
	for _, parallelism := range []int{0, 1, 3, 8, 1000} {
		events, err := ParseLines(header, lines, parallelism)
		assert.NoError(t, err)
		assert.EQ(t, len(events), len(lines))
		for i, ev := range events {
			expect.EQ(t, ev.Diff(), float64(i))
		}
	}

	events, err := ParseLines(header, nil, 4)
	assert.NoError(t, err)
	expect.EQ(t, len(events), 0)

	lines[42] = testLine("x", "10")
	_, err = ParseLines(header, lines, 4)
	require.Error(t, err)
	tassert.True(t, IsMalformed(err))
	tassert.Contains(t, err.Error(), "line 43")
}

func TestWriter(t *testing.T) {
	header := ParseHeader(testHeaderLine)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var want strings.Builder
	for i, line := range []string{
		testLine("0.55", "1201.37"),
		testLine("-1", "1e12"),
		strings.Replace(testLine("0.1", "5"), "['"+testIsoA+"','"+testIsoB+"']", "''", 1),
	} {
		ev, err := ParseEvent(line, header)
		assert.NoError(t, err)
		if i == 1 {
			ev.AddGene("Ints3")
		}
		assert.NoError(t, w.Write(ev))
		want.WriteString(ev.String())
		want.WriteString("\n")
	}
	assert.NoError(t, w.Flush())
	expect.EQ(t, w.Count(), 3)
	expect.EQ(t, buf.String(), want.String())
	expect.EQ(t, buf.String(),
		testEventName+"\tchr1\t-\t1201.37\t0.55\t"+testIsoA+"\t"+testIsoB+"\n"+
			testEventName+"\tchr1\t-\t1000000000000.0\t-1.0\t"+testIsoA+"\t"+testIsoB+"\tInts3\n"+
			testEventName+"\tchr1\t-\t5.0\t0.1\t\n")
}
