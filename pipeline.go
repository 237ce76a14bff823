package overlay

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

type tileFile struct {
	x, y  int
	file  string
	token string
}

// parseTilePath extracts the tile coordinates from a path of the form
// <tileX>/<tileY>.png.
func parseTilePath(file string) (int, int, bool) {
	if filepath.Ext(file) != ".png" {
		return 0, 0, false
	}
	x, err := strconv.Atoi(filepath.Base(filepath.Dir(file)))
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(file), ".png"))
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

func (s *Store) findTiles(ctx context.Context, base, skip string) (<-chan tileFile, <-chan error, error) {
	out := make(chan tileFile)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Don't pick up our own output
			if skip != "" && file == skip {
				return filepath.SkipDir
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			x, y, ok := parseTilePath(file)
			if !ok {
				return nil
			}

			select {
			case out <- tileFile{x: x, y: y, file: file, token: info.ModTime().UTC().Format(time.RFC3339Nano)}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (s *Store) tileWorker(ctx context.Context, in <-chan tileFile, dir string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for tf := range in {
			if !s.Touches(tf.x, tf.y) {
				continue
			}

			b, err := ioutil.ReadFile(tf.file)
			if err != nil {
				errc <- err
				return
			}

			overlay, err := s.ProcessTile(tf.x, tf.y, b, tf.token)
			if err != nil {
				// A broken tile only affects itself
				s.logger.Printf("Skipping \"%s\": %v\n", tf.file, err)
				continue
			}

			if dir == "" {
				continue
			}

			file := filepath.Join(dir, strconv.Itoa(tf.x), strconv.Itoa(tf.y)+".png")
			if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
				errc <- err
				return
			}
			if err := ioutil.WriteFile(file, overlay, 0644); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan diffs every canvas tile stored under path as <tileX>/<tileY>.png.
// Tiles not covered by an enabled template are skipped. If out is not empty
// the overlays are written beneath it using the same layout.
func (s *Store) Scan(path, out string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if out != "" {
		if out, err = filepath.Abs(out); err != nil {
			return err
		}
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	tiles, errc, err := s.findTiles(ctx, dir, out)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 10; i++ {
		errc, err := s.tileWorker(ctx, tiles, out)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
