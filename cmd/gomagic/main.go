package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hsiuhsiu/go-magic/pkg/magic"
	"github.com/hsiuhsiu/go-magic/pkg/magic/logging"
)

type paramList []string

func (p *paramList) String() string     { return strings.Join(*p, ",") }
func (p *paramList) Set(v string) error { *p = append(*p, v); return nil }

func main() {
	log.SetFlags(0)
	log.SetPrefix("gomagic: ")

	var (
		database     = flag.String("m", "", "colon-separated list of magic databases")
		mime         = flag.Bool("i", false, "print MIME type and encoding")
		mimeType     = flag.Bool("mime-type", false, "print MIME type only")
		mimeEncoding = flag.Bool("mime-encoding", false, "print MIME encoding only")
		keepGoing    = flag.Bool("k", false, "report every match, not just the first")
		compress     = flag.Bool("z", false, "look inside compressed files")
		extra        = flag.String("flags", "", "comma-separated extra flag names, e.g. SYMLINK,RAW")
		check        = flag.Bool("c", false, "check the magic databases")
		compile      = flag.Bool("C", false, "compile the magic databases")
		version      = flag.Bool("version", false, "print the libmagic version and exit")
		verbose      = flag.Bool("v", false, "print debug logging")
		params       paramList
	)
	flag.Var(&params, "P", "set a parameter, name=value (repeatable)")
	flag.Parse()

	if *version {
		v, err := magic.VersionString()
		if err != nil {
			fail(err)
		}
		fmt.Printf("libmagic %s\n", v)
		return
	}

	var paths []string
	if *database != "" {
		paths = filepath.SplitList(*database)
	}

	f := magic.None
	switch {
	case *mime:
		f |= magic.MIME
	case *mimeType:
		f |= magic.MIMEType
	case *mimeEncoding:
		f |= magic.MIMEEncoding
	}
	if *keepGoing {
		f |= magic.Continue
	}
	if *compress {
		f |= magic.Compress
	}
	if *extra != "" {
		more, err := magic.ParseFlags(strings.Split(*extra, ",")...)
		if err != nil {
			fail(err)
		}
		f |= more
	}
	if *verbose {
		f |= magic.Debug
	}

	logger := logging.Discard()
	if *verbose {
		z, err := zap.NewDevelopment()
		if err != nil {
			fail(err)
		}
		defer func() { _ = z.Sync() }()
		logger = logging.NewZap(z)
	}

	opts := []magic.Option{magic.WithFlags(f), magic.WithLogger(logger)}
	if len(params) > 0 {
		opts = append(opts, magic.WithSetup(func(s *magic.Session) error {
			return applyParams(s, params)
		}))
	}

	switch {
	case *check:
		if err := magic.CheckDatabase(paths, opts...); err != nil {
			fail(err)
		}
		return
	case *compile:
		if err := magic.CompileDatabase(paths, opts...); err != nil {
			fail(err)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: gomagic [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if len(paths) > 0 {
		opts = append(opts, magic.WithDatabase(paths...))
	}

	failed := false
	err := magic.Do(func(s *magic.Session) error {
		for _, name := range flag.Args() {
			var (
				out string
				err error
			)
			if name == "-" {
				out, err = s.Stream(os.Stdin)
			} else {
				out, err = s.File(name)
			}
			if err != nil {
				fmt.Printf("%s: ERROR: %v\n", name, err)
				failed = true
				continue
			}
			fmt.Printf("%s: %s\n", name, out)
		}
		return nil
	}, opts...)
	if err != nil {
		fail(err)
	}
	if failed {
		os.Exit(1)
	}
}

func applyParams(s *magic.Session, params []string) error {
	for _, kv := range params {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("parameter %q: want name=value", kv)
		}
		p, err := magic.ParseParam(name)
		if err != nil {
			return err
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		if err := s.SetParameter(p, v); err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
	}
	return nil
}

func fail(err error) {
	if errors.Is(err, magic.ErrNotBuilt) || errors.Is(err, magic.ErrLibraryNotFound) {
		log.Fatalf("library unavailable: %v", err)
	}
	log.Fatal(err)
}
