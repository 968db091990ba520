// bio-miso post-processes the output of MISO's compare_miso.
//
// Example: produce the per-gene comparison file and its Bayes-factor filtered
// subset, as the reformat_compare_miso pipeline step does.
//
//    bio-miso reformat -g gene_lookup.mm10.gff3 -c miso_vs_miso.miso_bf -o bygene.miso_bf
//
// This writes bygene.miso_bf and bygene_b100.0.miso_bf.
package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/misotools/misobf"
	"v.io/x/lib/cmdline"
)

func addFilterFlags(cmd *cmdline.Command, opts *reformatOpts) {
	cmd.Flags.StringVar(&opts.compPath, "c", "", "miso_bf file written by compare_miso. Required.")
	cmd.Flags.StringVar(&opts.genePath, "g", "", "GFF3 gene lookup used to attach gene names to events. Optional.")
	cmd.Flags.Float64Var(&opts.bayesCutoff, "bayes-cutoff", misobf.DefaultBayesCutoff,
		"Events with a Bayes factor strictly greater than this pass the filter.")
	cmd.Flags.BoolVar(&opts.negativeDiffOnly, "negative-diff-only", false,
		"If set, only events with a negative diff pass the filter.")
	cmd.Flags.BoolVar(&opts.ignoreStrand, "ignore-strand", false,
		"If set, gene lookup by coordinate matches genes on either strand.")
	cmd.Flags.BoolVar(&opts.skipMalformed, "skip-malformed", false,
		"If set, malformed lines are logged and skipped. By default they abort the run.")
}

func newCmdReformat() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "reformat",
		Short: "Annotate a miso_bf file with genes and write it with its filtered subset",
		Long: `
Reads a miso_bf file, attaches gene names, and writes every event to -o.
Events that pass the filter are also written to -filtered, which defaults to
the -o path with "_b<cutoff>" inserted before the .miso_bf extension.
Output paths ending in .gz are gzip-compressed.`,
	}
	opts := reformatOpts{}
	addFilterFlags(cmd, &opts)
	cmd.Flags.StringVar(&opts.outPath, "o", "", "Output path for all events. Required.")
	cmd.Flags.StringVar(&opts.filteredPath, "filtered", "", "Output path for events that pass the filter.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("reformat takes no positional arguments, but got %v", argv)
		}
		if opts.compPath == "" || opts.outPath == "" {
			return fmt.Errorf("reformat: -c and -o are required")
		}
		_, err := reformat(vcontext.Background(), opts)
		return err
	})
	return cmd
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "view",
		Short: "Print the events of a miso_bf file that pass the filter, in reformatted form",
	}
	opts := reformatOpts{}
	addFilterFlags(cmd, &opts)
	cmd.Flags.BoolVar(&opts.all, "all", false, "Print every event, not only those that pass the filter.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("view takes no positional arguments, but got %v", argv)
		}
		if opts.compPath == "" {
			return fmt.Errorf("view: -c is required")
		}
		_, err := view(vcontext.Background(), env.Stdout, opts)
		return err
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-miso",
			Short:    "Tools for working with MISO comparison (miso_bf) files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdReformat(),
				newCmdView(),
			},
		})
}
