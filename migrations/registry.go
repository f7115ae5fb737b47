// Package migrations exposes the embedded account-sync schema per dialect
// and hands it to a migration runner.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	accountsync "github.com/goliatone/go-accountsync"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	DefaultSourceLabel = "go-accountsync"

	rootPath   = "data/sql/migrations"
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Source is the migration tree of one dialect. Versions lists the
// migration names without their .up.sql/.down.sql suffix, in apply order.
type Source struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Sources     []Source
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithDialects limits registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		if next := normalizeDialects(dialects); len(next) > 0 {
			r.Dialects = next
		}
	}
}

// WithSources replaces the embedded sources, mostly for tests.
func WithSources(sources ...Source) Option {
	return func(r *Registration) {
		kept := make([]Source, 0, len(sources))
		for _, source := range sources {
			source.Dialect = strings.TrimSpace(strings.ToLower(source.Dialect))
			if source.Dialect == "" || source.FS == nil {
				continue
			}
			kept = append(kept, source)
		}
		if len(kept) > 0 {
			r.Sources = kept
		}
	}
}

// Sources resolves the postgres tree and its sqlite alternative from root,
// or from the embedded schema when root is nil. Both trees must carry the
// same versions so either database ends up with the same schema.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = accountsync.GetMigrationsFS()
	}
	base, basePath, err := migrationsRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: joinPath(basePath, "sqlite"), FS: sqliteFS},
	}
	for i := range sources {
		versions, err := Versions(sources[i].FS)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s tree %q: %w", sources[i].Dialect, sources[i].Path, err)
		}
		sources[i].Versions = versions
	}
	if !slices.Equal(sources[0].Versions, sources[1].Versions) {
		return nil, fmt.Errorf(
			"migrations: sqlite versions %v do not mirror postgres versions %v",
			sources[1].Versions, sources[0].Versions,
		)
	}
	return sources, nil
}

// Versions lists the migrations of one tree. Every up file needs a down
// file and the other way round.
func Versions(fsys fs.FS) ([]string, error) {
	ups, err := fs.Glob(fsys, "*"+upSuffix)
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("no *%s files", upSuffix)
	}
	downs, err := fs.Glob(fsys, "*"+downSuffix)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(ups))
	for _, name := range ups {
		versions = append(versions, strings.TrimSuffix(name, upSuffix))
	}
	slices.Sort(versions)

	rollbacks := make([]string, 0, len(downs))
	for _, name := range downs {
		rollbacks = append(rollbacks, strings.TrimSuffix(name, downSuffix))
	}
	slices.Sort(rollbacks)

	for _, version := range versions {
		if _, found := slices.BinarySearch(rollbacks, version); !found {
			return nil, fmt.Errorf("%s has no %s", version+upSuffix, version+downSuffix)
		}
	}
	for _, version := range rollbacks {
		if _, found := slices.BinarySearch(versions, version); !found {
			return nil, fmt.Errorf("%s has no %s", version+downSuffix, version+upSuffix)
		}
	}
	return versions, nil
}

// Register calls registerFn once per selected dialect with its tree.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: DefaultSourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if len(reg.Sources) == 0 {
		sources, err := Sources(nil)
		if err != nil {
			return reg, err
		}
		reg.Sources = sources
	}

	for _, dialect := range reg.Dialects {
		idx := slices.IndexFunc(reg.Sources, func(source Source) bool { return source.Dialect == dialect })
		if idx < 0 {
			return reg, fmt.Errorf("migrations: no source for dialect %q", dialect)
		}
		source := reg.Sources[idx]
		if err := registerFn(ctx, source.Dialect, reg.SourceLabel, source.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", source.Dialect, source.Path, err)
		}
	}
	return reg, nil
}

func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	if info, err := fs.Stat(root, rootPath); err == nil && info.IsDir() {
		sub, err := fs.Sub(root, rootPath)
		if err != nil {
			return nil, "", fmt.Errorf("migrations: resolve %s: %w", rootPath, err)
		}
		return sub, rootPath, nil
	}
	if matches, err := fs.Glob(root, "*"+upSuffix); err == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value == "" || slices.Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

func joinPath(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return base + "/" + suffix
}
