// Package archive locates IRC database archives and unpacks them into file
// groups laid out as <root>/<game>/<YYYYMM>/{hdb,hroster,pdb/}.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/allenfrostline/PokerHandsDataset/internal/ircdb"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

var (
	archiveName = regexp.MustCompile(`^(\S+)\.(\d{6})\.tgz$`)
	yearMonth   = regexp.MustCompile(`^\d{6}$`)
)

// ErrUnsafePath is returned for archive members that would land outside the
// extraction root.
var ErrUnsafePath = errors.New("archive member escapes extraction root")

// Archive is one <game>.<YYYYMM>.tgz file.
type Archive struct {
	Path      string
	Game      string
	YearMonth string
}

// GroupDir is where the archive's file group lands under root.
func (a Archive) GroupDir(root string) string {
	return filepath.Join(root, a.Game, a.YearMonth)
}

// ParseName recognises an archive file name such as "holdem.199601.tgz".
func ParseName(path string) (Archive, bool) {
	m := archiveName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Archive{}, false
	}
	return Archive{Path: path, Game: m[1], YearMonth: m[2]}, true
}

// Find walks baseDir for archive files, in lexical order.
func Find(baseDir string) ([]Archive, error) {
	var found []Archive
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if a, ok := ParseName(path); ok {
			found = append(found, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", baseDir, err)
	}
	return found, nil
}

// Options controls extraction.
type Options struct {
	// Allow reports whether an archive game type should be extracted.
	Allow func(game string) bool
	// NormalizeNames rewrites "|" to "_" in member names.
	NormalizeNames bool
}

// Extractor unpacks archives below a destination root.
type Extractor struct {
	dest   string
	opts   Options
	logger zerolog.Logger
}

// NewExtractor creates an extractor writing below dest.
func NewExtractor(dest string, opts Options, logger zerolog.Logger) *Extractor {
	return &Extractor{
		dest:   dest,
		opts:   opts,
		logger: logger.With().Str("component", "archive").Logger(),
	}
}

// ExtractAll finds every archive under baseDir, unpacks the allowed ones and
// returns their group directories. A broken archive is logged and skipped.
func (e *Extractor) ExtractAll(ctx context.Context, baseDir string) ([]string, error) {
	archives, err := Find(baseDir)
	if err != nil {
		return nil, err
	}

	var groups []string
	for _, a := range archives {
		if err := ctx.Err(); err != nil {
			return groups, err
		}
		if e.opts.Allow != nil && !e.opts.Allow(a.Game) {
			e.logger.Warn().Str("archive", a.Path).Str("game", a.Game).Msg("Skipping archive for unsupported game type")
			continue
		}
		dir, err := e.Extract(a)
		if err != nil {
			e.logger.Error().Err(err).Str("archive", a.Path).Msg("Failed to extract archive")
			continue
		}
		groups = append(groups, dir)
	}
	return groups, nil
}

// Extract unpacks one archive and returns its group directory.
func (e *Extractor) Extract(a Archive) (string, error) {
	e.logger.Info().Str("archive", a.Path).Msg("Extracting")

	f, err := os.Open(filepath.Clean(a.Path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	members := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", a.Path, err)
		}
		if err := e.writeMember(hdr, tr); err != nil {
			return "", fmt.Errorf("%s: %w", a.Path, err)
		}
		members++
	}

	e.logger.Debug().Str("archive", a.Path).Int("members", members).Msg("Extracted")
	return a.GroupDir(e.dest), nil
}

func (e *Extractor) writeMember(hdr *tar.Header, r io.Reader) error {
	name := hdr.Name
	if e.opts.NormalizeNames {
		name = strings.ReplaceAll(name, "|", "_")
	}
	target, err := e.target(name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	default:
		// Links and devices never appear in the database archives.
		e.logger.Debug().Str("member", hdr.Name).Msg("Skipping non-regular member")
		return nil
	}
}

func (e *Extractor) target(name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(e.dest, name)
	rel, err := filepath.Rel(e.dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// Discover returns the already extracted groups under root: directories
// named <game>/<YYYYMM> that hold a summary file, for allowed games only.
// A nil allow accepts every game.
func Discover(root string, allow func(game string) bool) ([]string, error) {
	gameDirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	var groups []string
	for _, g := range gameDirs {
		if !g.IsDir() || (allow != nil && !allow(g.Name())) {
			continue
		}
		months, err := os.ReadDir(filepath.Join(root, g.Name()))
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", g.Name(), err)
		}
		for _, m := range months {
			if !m.IsDir() || !yearMonth.MatchString(m.Name()) {
				continue
			}
			dir := filepath.Join(root, g.Name(), m.Name())
			if _, err := os.Stat(filepath.Join(dir, ircdb.SummaryFile)); err == nil {
				groups = append(groups, dir)
			}
		}
	}
	return groups, nil
}
