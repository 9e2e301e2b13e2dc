// Package env composes the environment handed to openclaw invocations.
//
// A desktop panel is often launched from a GUI session whose PATH lacks the
// npm global bin directory, so the composed environment can prepend extra
// search directories to PATH in addition to applying configured overrides.
package env

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

type Var map[string]string

type Env struct {
	Var       Var      // configured overrides (K->V)
	PathDirs  []string // prepended to PATH, in order
	base      Var      // snapshot of the OS environment
	baseTaken bool
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromPairs builds an Env from "K=V" entries; malformed entries are skipped.
func FromPairs(pairs []string) *Env {
	e := New()
	for _, kv := range pairs {
		if k, v, ok := splitPair(kv); ok {
			e.Var[k] = v
		}
	}
	return e
}

// FromOS snapshots the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if k, v, ok := splitPair(kv); ok {
			base[k] = v
		}
	}
	e.base = base
	e.baseTaken = true
}

// Set sets an override K=V.
func (e *Env) Set(k, v string) {
	if k == "" {
		return
	}
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// WithPath returns e after appending dirs to the PATH prefix list.
func (e *Env) WithPath(dirs ...string) *Env {
	for _, d := range dirs {
		if d != "" {
			e.PathDirs = append(e.PathDirs, d)
		}
	}
	return e
}

// Merge composes the final environment: OS base, then overrides, then extra
// "K=V" pairs, then PATH prefixing. ${VAR} references in values are expanded
// once against the composed map. The output is sorted by key.
func (e *Env) Merge(extra []string) []string {
	if !e.baseTaken {
		e.FromOS()
	}
	m := make(Var, len(e.base)+len(e.Var))
	for k, v := range e.base {
		m[k] = v
	}
	for k, v := range e.Var {
		if k != "" {
			m[k] = v
		}
	}
	for _, kv := range extra {
		if k, v, ok := splitPair(kv); ok {
			m[k] = v
		}
	}

	expanded := make(Var, len(m))
	for k, v := range m {
		expanded[k] = expand(v, m)
	}
	if len(e.PathDirs) > 0 {
		key := pathKey(expanded)
		expanded[key] = prependPath(expanded[key], e.PathDirs)
	}

	keys := make([]string, 0, len(expanded))
	for k := range expanded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+expanded[k])
	}
	return out
}

func splitPair(kv string) (string, string, bool) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}

func expand(s string, m Var) string {
	if !strings.Contains(s, "${") {
		return s
	}
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}

// pathKey finds the PATH variable name; Windows spells it "Path".
func pathKey(m Var) string {
	if runtime.GOOS == "windows" {
		for k := range m {
			if strings.EqualFold(k, "PATH") {
				return k
			}
		}
	}
	return "PATH"
}

func prependPath(cur string, dirs []string) string {
	sep := string(filepath.ListSeparator)
	present := make(map[string]struct{})
	for _, p := range filepath.SplitList(cur) {
		present[p] = struct{}{}
	}
	var head []string
	for _, d := range dirs {
		if _, ok := present[d]; ok {
			continue
		}
		present[d] = struct{}{}
		head = append(head, d)
	}
	if len(head) == 0 {
		return cur
	}
	if cur == "" {
		return strings.Join(head, sep)
	}
	return strings.Join(head, sep) + sep + cur
}
