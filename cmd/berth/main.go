package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/berth-go/berth/internal/cli"
)

func main() {
	var (
		typesFlag   = flag.String("types", "", "Comma-separated fixture declaration type names (defaults to every matching struct)")
		outFlag     = flag.String("out", "", "Output directory for generated files (defaults to the scanned directory)")
		pkgFlag     = flag.String("pkg", "", "Package name for generated files (defaults to the output directory name)")
		verboseFlag = flag.Bool("verbose", false, "Enable verbose output")
		quietFlag   = flag.Bool("quiet", false, "Only show errors")
		helpFlag    = flag.Bool("help", false, "Show help information")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <directory>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Berth Fixture Code Generator\n")
		fmt.Fprintf(os.Stderr, "Scans a module directory for fixture declaration types and generates\n")
		fmt.Fprintf(os.Stderr, "ahead-of-time registration files that rebuild their wiring without\n")
		fmt.Fprintf(os.Stderr, "runtime discovery.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s ./internal/fixtures                       # Generate for every fixture struct\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -types AppFixture -out ./internal/boot ./internal/fixtures\n", os.Args[0])
	}

	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one directory is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	dir := args[0]

	reporter := cli.NewReporter(*verboseFlag, *quietFlag)

	var typeNames []string
	if *typesFlag != "" {
		for _, name := range strings.Split(*typesFlag, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				typeNames = append(typeNames, trimmed)
			}
		}
	}

	reporter.Debugf("scanning %s", dir)
	scanner := cli.NewSourceScanner(reporter)
	fixtures, err := scanner.Scan(dir, typeNames)
	if err != nil {
		reporter.Errorf("scan failed: %v", err)
		os.Exit(1)
	}
	if len(fixtures) == 0 {
		reporter.Warnf("no fixture declarations found in %s", dir)
		os.Exit(0)
	}
	reporter.Infof("found %d fixture declaration(s)", len(fixtures))

	outDir := *outFlag
	if outDir == "" {
		outDir = dir
	}
	generator := cli.NewGenerator(reporter)
	if err := generator.Generate(fixtures, outDir, *pkgFlag); err != nil {
		reporter.Errorf("generation failed: %v", err)
		os.Exit(1)
	}
}
