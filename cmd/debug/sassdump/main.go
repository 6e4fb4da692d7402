package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sassy/cmd/debug/internal/dumputil"
	"sassy/common"
	"sassy/compiler"
)

type loadPaths []string

func (l *loadPaths) String() string {
	return strings.Join(*l, ",")
}

func (l *loadPaths) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	all := flag.Bool("all", false, "enable all dump flags (-tree, -css, -sources, -sqlite)")
	tree := flag.Bool("tree", false, "dump evaluated statement tree into <file>-tree.txt")
	styles := flag.Bool("css", false, "write <file>-expanded.css and <file>-compressed.css")
	sources := flag.Bool("sources", false, "store every loaded source into <file>-sources.zip")
	writeSqlite := flag.Bool("sqlite", false, "write sources and evaluated statements to SQLite database <file>.sqlite")
	overwrite := flag.Bool("overwrite", false, "overwrite existing output")
	var paths loadPaths
	flag.Var(&paths, "I", "additional load path, may be repeated")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sassdump [-all] [-tree] [-css] [-sources] [-sqlite] [-overwrite] [-I dir] <file.scss|file.sass|file.sqlite> [outdir]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles stylesheet and dumps intermediate results for troubleshooting.\n")
		fmt.Fprintf(os.Stderr, "Database produced by -sqlite is summarized to STDOUT regardless of flags.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	if *all {
		*tree = true
		*styles = true
		*sources = true
		*writeSqlite = true
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	inPath := flag.Arg(0)
	outDir := ""
	if flag.NArg() == 2 {
		outDir = flag.Arg(1)
	}

	b, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", inPath, err)
		os.Exit(1)
	}

	if dumputil.IsDatabase(b) {
		summary, err := dumputil.SummarizeSQLite(inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "summarize: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(summary)
		return
	}

	if !*tree && !*styles && !*sources && !*writeSqlite {
		flag.Usage()
		os.Exit(2)
	}

	opts := compiler.DefaultOptions()
	opts.LoadPaths = paths
	text, err := compiler.ReadSource(inPath, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// sources are useful even for broken stylesheets
	root, m, cerr := compiler.CompileStatements(inPath, text, opts)
	if *sources && m != nil {
		if err := dumputil.DumpSources(m, inPath, outDir, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "dump sources: %v\n", err)
			os.Exit(1)
		}
	}
	if cerr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", cerr)
		os.Exit(1)
	}

	if *writeSqlite {
		if err := dumputil.DumpSQLite(root, m, inPath, outDir, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "write sqlite: %v\n", err)
			os.Exit(1)
		}
	}

	if *tree {
		if err := dumputil.DumpTreeTxt(root, inPath, outDir, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "dump tree: %v\n", err)
			os.Exit(1)
		}
	}

	if *styles {
		for _, style := range []common.OutputStyle{common.OutputStyleExpanded, common.OutputStyleCompressed} {
			opts.Style = style
			out, err := compiler.Render(root, m, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
			if err := dumputil.WriteOutput(inPath, outDir, "-"+style.String()+".css", []byte(out), *overwrite); err != nil {
				fmt.Fprintf(os.Stderr, "write css: %v\n", err)
				os.Exit(1)
			}
		}
	}
}
