package migrate

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	migrationNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe          = regexp.MustCompile(`[^a-z0-9]+`)
)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<slug>.sql with empty Up
// and Down sections. ValidateDir rejects the file until the Up section holds
// at least one statement.
func CreateSQLMigration(dir, name string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	file := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format(versionLayout), slug))
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", file, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, migrationTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", file, err)
	}
	return file, nil
}

// ValidateDir checks the migrations on disk.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks file names, version uniqueness and that every migration
// carries goose Up and Down annotations with at least one Up statement.
func ValidateFS(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no migrations found")
	}
	sort.Strings(names)

	versions := make(map[string]string, len(names))
	for _, name := range names {
		m := migrationNameRe.FindStringSubmatch(path.Base(name))
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if _, err := time.Parse(versionLayout, m[1]); err != nil {
			return fmt.Errorf("migration %q: version is not a timestamp", name)
		}
		if prev, ok := versions[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		versions[m[1]] = name

		if err := checkSections(fsys, name); err != nil {
			return err
		}
	}
	return nil
}

func checkSections(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	defer f.Close()

	var (
		section      string
		hasUp        bool
		hasDown      bool
		upStatements int
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "-- +goose Up"):
			section, hasUp = "up", true
		case strings.HasPrefix(line, "-- +goose Down"):
			section, hasDown = "down", true
		case line == "" || strings.HasPrefix(line, "--"):
		case section == "up":
			upStatements++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}

	switch {
	case !hasUp:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case !hasDown:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case upStatements == 0:
		return fmt.Errorf("migration %q has no statements in its Up section", name)
	}
	return nil
}
