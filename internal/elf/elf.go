// Package elf is the symbol+section oracle a native .so shipped inside
// an APK's lib/ tree is read through, answering "does this symbol
// actually exist in the shared object". The cross-reference index does
// not consult it.
package elf

import (
	"bytes"
	"debug/elf"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// Symbol is one entry from a .so's dynamic or regular symbol table.
type Symbol struct {
	Name    string
	Value   uint64
	Size    uint64
	Section string
}

// Section is one ELF section header.
type Section struct {
	Name string
	Addr uint64
	Size uint64
	Type string
}

// SymbolOracle answers symbol- and section-presence queries against a
// native library, identified by its archive-relative path (e.g.
// "lib/arm64-v8a/libfoo.so"). internal/apk implements the plumbing
// that resolves such a path to actual bytes; Reader implements the
// query side over an already-extracted file.
type SymbolOracle interface {
	Symbols(path string) ([]Symbol, error)
	Sections(path string) ([]Section, error)
}

// Reader is a SymbolOracle backed by .so files already on disk, rooted
// under Dir (internal/apk itself keeps extracted libraries in memory
// and uses MemOracle). It parses them with the standard library's
// debug/elf — the same
// choice LineageOS's own build tooling (cmd/symbols_map) makes for
// reading a .so's build-id and sections, so there is no separate
// hand-rolled section/symtab walker here.
type Reader struct {
	Dir string
}

// NewReader returns a Reader rooted at dir.
func NewReader(dir string) *Reader {
	return &Reader{Dir: dir}
}

func (r *Reader) open(path string) (*elf.File, func() error, error) {
	f, err := os.Open(r.Dir + string(os.PathSeparator) + path)
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "elf: open %s", path)
	}
	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, nil, pkgerrors.Wrapf(err, "elf: parse %s", path)
	}
	return ef, f.Close, nil
}

// MemOracle is a SymbolOracle backed by .so bytes already held in
// memory — internal/apk hands it the lib/**/*.so entries it extracted
// from the archive directly, with no temp-file round trip.
type MemOracle struct {
	libs map[string][]byte
}

// NewMemOracle indexes libs by archive-relative path.
func NewMemOracle(libs map[string][]byte) *MemOracle {
	return &MemOracle{libs: libs}
}

func (o *MemOracle) open(path string) (*elf.File, error) {
	data, ok := o.libs[path]
	if !ok {
		return nil, pkgerrors.Errorf("elf: %s not found", path)
	}
	ef, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "elf: parse %s", path)
	}
	return ef, nil
}

// Symbols implements SymbolOracle.
func (o *MemOracle) Symbols(path string) ([]Symbol, error) {
	ef, err := o.open(path)
	if err != nil {
		return nil, err
	}
	return symbolsOf(ef)
}

// Sections implements SymbolOracle.
func (o *MemOracle) Sections(path string) ([]Section, error) {
	ef, err := o.open(path)
	if err != nil {
		return nil, err
	}
	return sectionsOf(ef)
}

// Symbols returns the named entries of both the regular symbol table
// (debug builds) and the dynamic one (what a stripped release .so still
// carries), regular table first; a name present in both is reported
// once, from the regular table.
func (r *Reader) Symbols(path string) ([]Symbol, error) {
	ef, closeFile, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	return symbolsOf(ef)
}

func symbolsOf(ef *elf.File) ([]Symbol, error) {
	syms, symErr := ef.Symbols()
	dynSyms, dynErr := ef.DynamicSymbols()
	if symErr != nil && dynErr != nil {
		// Neither table present is normal for a minimal .so, not a
		// failure: report no symbols rather than an error.
		return nil, nil
	}

	out := make([]Symbol, 0, len(syms)+len(dynSyms))
	seen := make(map[string]bool, len(syms)+len(dynSyms))
	for _, group := range [][]elf.Symbol{syms, dynSyms} {
		for _, s := range group {
			if s.Name == "" || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, Symbol{
				Name:    s.Name,
				Value:   s.Value,
				Size:    s.Size,
				Section: sectionName(ef, s.Section),
			})
		}
	}
	return out, nil
}

func sectionName(ef *elf.File, idx elf.SectionIndex) string {
	i := int(idx)
	if i < 0 || i >= len(ef.Sections) {
		return ""
	}
	return ef.Sections[i].Name
}

// Sections returns every ELF section header in the .so.
func (r *Reader) Sections(path string) ([]Section, error) {
	ef, closeFile, err := r.open(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	return sectionsOf(ef)
}

func sectionsOf(ef *elf.File) ([]Section, error) {
	out := make([]Section, 0, len(ef.Sections))
	for _, s := range ef.Sections {
		out = append(out, Section{
			Name: s.Name,
			Addr: s.Addr,
			Size: s.Size,
			Type: s.Type.String(),
		})
	}
	return out, nil
}
