// Package skills manages the openclaw skills directory: listing installed
// skills from their SKILL.md front matter and installing or removing them
// through the clawhub CLI.
package skills

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loykin/clawpanel/internal/runner"
)

// Skill is one installed skill directory.
type Skill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

var (
	// ErrInvalidName rejects ids and package names that are unsafe to pass
	// to the installer or to join into a path.
	ErrInvalidName = errors.New("invalid skill name")
	ErrNotFound    = errors.New("Skill directory not found")
)

type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ExecFunc runs program with args in dir.
type ExecFunc func(ctx context.Context, dir, program string, args ...string) (runner.Result, error)

// Manager operates on <home>/skills.
type Manager struct {
	home   string
	logger *slog.Logger
	exec   ExecFunc
}

func NewManager(home string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{home: home, logger: logger.With("component", "skills"), exec: runner.Exec}
}

// Dir is the skills directory.
func (m *Manager) Dir() string { return filepath.Join(m.home, "skills") }

// List returns installed skills sorted by id. A missing directory yields an
// empty list; entries without a readable front matter are skipped.
func (m *Manager) List() ([]Skill, error) {
	entries, err := os.ReadDir(m.Dir())
	if errors.Is(err, os.ErrNotExist) {
		return []Skill{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read skills directory: %w", err)
	}
	out := []Skill{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.Dir(), e.Name())
		b, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				m.logger.Warn("read SKILL.md", "skill", e.Name(), "error", err)
			}
			continue
		}
		fm, err := parseFrontMatter(b)
		if err != nil {
			m.logger.Warn("skip skill", "skill", e.Name(), "error", err)
			continue
		}
		out = append(out, Skill{ID: e.Name(), Name: fm.Name, Description: fm.Description, Path: dir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	m.logger.Debug("listed skills", "count", len(out))
	return out, nil
}

// parseFrontMatter extracts the YAML block between the leading "---" and
// the next "---". name is required.
func parseFrontMatter(b []byte) (frontMatter, error) {
	var fm frontMatter
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(b, []byte("---")) {
		return fm, errors.New("missing front matter")
	}
	rest := b[3:]
	end := bytes.Index(rest, []byte("---"))
	if end < 0 {
		return fm, errors.New("unterminated front matter")
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, fmt.Errorf("parse front matter: %w", err)
	}
	if strings.TrimSpace(fm.Name) == "" {
		return fm, errors.New("front matter has no name")
	}
	return fm, nil
}

// Install runs `npx clawhub install <name>` inside the openclaw home,
// creating it first. It returns the installer's stdout.
func (m *Manager) Install(ctx context.Context, name string) (string, error) {
	if !validPackageName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(m.home, 0o750); err != nil {
		return "", fmt.Errorf("Failed to create %s directory: %w", m.home, err)
	}
	m.logger.Info("installing skill", "name", name)
	res, err := m.exec(ctx, m.home, "npx", "clawhub", "install", name)
	if err != nil {
		return "", fmt.Errorf("Failed to execute clawhub install: %w", err)
	}
	if !res.Success {
		m.logger.Warn("skill install failed", "name", name, "stderr", strings.TrimSpace(res.Stderr))
		return "", fmt.Errorf("Failed to install skill: %s", strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// Uninstall removes <home>/skills/<id>.
func (m *Manager) Uninstall(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	p := filepath.Join(m.Dir(), id)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return err
	}
	m.logger.Info("removing skill", "path", p)
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("Failed to remove skill directory: %w", err)
	}
	return nil
}

// ClawhubInstalled checks `clawhub --version`, then the npm global list,
// which still works when PATH was not refreshed after a global install.
func (m *Manager) ClawhubInstalled(ctx context.Context) (bool, error) {
	if res, err := m.exec(ctx, "", "clawhub", "--version"); err == nil && res.Success {
		return true, nil
	}
	m.logger.Debug("clawhub not on PATH, checking npm global list")
	res, err := m.exec(ctx, "", "npm", "list", "-g", "clawhub", "--depth=0")
	if err != nil {
		return false, fmt.Errorf("Failed to execute npm list: %w", err)
	}
	// npm list exits 1 when the package is absent on some versions; only stdout matters
	return strings.Contains(res.Stdout, "clawhub@"), nil
}

// InstallClawhub installs the clawhub CLI globally through npm.
func (m *Manager) InstallClawhub(ctx context.Context) error {
	return m.npmGlobal(ctx, "install")
}

// UninstallClawhub removes the global clawhub CLI.
func (m *Manager) UninstallClawhub(ctx context.Context) error {
	return m.npmGlobal(ctx, "uninstall")
}

func (m *Manager) npmGlobal(ctx context.Context, verb string) error {
	m.logger.Info("npm global", "verb", verb, "package", "clawhub")
	res, err := m.exec(ctx, "", "npm", verb, "-g", "clawhub")
	if err != nil {
		return fmt.Errorf("Failed to execute npm %s: %w", verb, err)
	}
	if !res.Success {
		return fmt.Errorf("Failed to %s clawhub: %s", verb, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// validID accepts a single path segment made of [A-Za-z0-9._-] without "..".
func validID(s string) bool {
	if s == "" || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			continue
		}
		return false
	}
	return true
}

// validPackageName additionally allows "@scope/name" forms but never a
// leading "-" that the installer would read as a flag.
func validPackageName(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' || r == '@' || r == '/' {
			continue
		}
		return false
	}
	return true
}
