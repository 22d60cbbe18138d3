package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/consensys/gunzip"
	"github.com/consensys/gunzip/config"
)

const gzExt = ".gz"

// report is what gets logged for a decoded file.
type report struct {
	Output   string
	Name     string
	OrigSize uint32
	Size     int64
	Blocks   int
	XXHash   uint64
}

// expandInputs resolves every pattern with doublestar (so ** crosses
// directories). A pattern matching nothing is an error. Duplicates are dropped.
func expandInputs(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "bad pattern %q", p)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no file matches %q", p)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	return files, nil
}

// outputName strips the .gz extension, or appends the configured suffix when
// there is none. With an output directory only the base name is kept.
func outputName(input string, out *config.TOMLOutput) string {
	name := input
	if strings.EqualFold(filepath.Ext(name), gzExt) && len(name) > len(gzExt) {
		name = name[:len(name)-len(gzExt)]
	} else {
		name += out.Suffix
	}

	if out.Dir != "" {
		name = filepath.Join(out.Dir, filepath.Base(name))
	}
	return name
}

// run decodes files concurrently, at most num_workers at a time. Every file
// is attempted; the first failure is returned.
func run(cfg *config.Config, files []string) error {
	var g errgroup.Group
	g.SetLimit(cfg.TOML.Config.NumWorkers)

	var failed atomic.Int32
	for _, file := range files {
		g.Go(func() error {
			log := logrus.WithField("file", file)

			r, err := decodeFile(file, cfg, log)
			if err != nil {
				failed.Add(1)
				log.Errorf("unable to decode: %s", err)
				return errors.Wrap(err, file)
			}

			log.WithFields(logrus.Fields{
				"output":    r.Output,
				"name":      r.Name,
				"orig_size": r.OrigSize,
				"size":      r.Size,
				"blocks":    r.Blocks,
				"xxhash":    fmt.Sprintf("%016x", r.XXHash),
			}).Info("decoded")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Wrapf(err, "%d of %d file(s) failed, first error", failed.Load(), len(files))
	}
	return nil
}

// decodeFile decodes one file to its output name. A partial output is
// removed on failure.
func decodeFile(file string, cfg *config.Config, log *logrus.Entry) (r *report, err error) {
	in, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "error opening input")
	}
	defer in.Close()

	outPath := outputName(file, cfg.TOML.Output)
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if cfg.TOML.Output.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(outPath, flags, 0644)
	if os.IsExist(err) {
		return nil, errors.Errorf("%s already exists, set output.overwrite to replace it", outPath)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error creating output")
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "error closing output")
		}
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()

	bw := bufio.NewWriter(out)
	digest := xxhash.New()
	s, err := gunzip.Decompress(in, io.MultiWriter(bw, digest), gunzip.Options{
		VerifyTrailer: cfg.TOML.Config.VerifyTrailer,
		Log:           log,
	})
	if err != nil {
		return nil, err
	}
	if err = bw.Flush(); err != nil {
		return nil, errors.Wrap(err, "error writing output")
	}

	return &report{
		Output:   outPath,
		Name:     s.Header.Name,
		OrigSize: s.OrigSize,
		Size:     s.Size,
		Blocks:   len(s.Blocks),
		XXHash:   digest.Sum64(),
	}, nil
}
