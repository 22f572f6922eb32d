// Package apk is the thin ingestion shim that gets real bytes in front
// of pkg/dex: a genuine ZIP walker, not the full APK/manifest oracle
// (signature verification, resource table, AndroidManifest.xml
// parsing) that stays out of scope. It classifies classes.dex /
// classes\d+.dex at the archive root as DEX payloads and everything
// under lib/**/*.so as native libraries, handing the latter to
// internal/elf as a SymbolOracle.
package apk

import (
	"archive/zip"
	"io"
	"path"
	"regexp"
	"sort"

	"github.com/klauspost/compress/flate"
	pkgerrors "github.com/pkg/errors"
)

// maxNestingDepth bounds recursion into an archive that itself embeds
// another ZIP as an asset (an APK shipping an APK, or a split config
// APK referencing a base one); past this depth, nested archives are
// skipped without being opened.
const maxNestingDepth = 4

var dexNamePattern = regexp.MustCompile(`^classes\d*\.dex$`)

// Entry is one file extracted from the archive, classified by name.
type Entry struct {
	// Name is the path within the archive, e.g. "classes2.dex" or
	// "lib/arm64-v8a/libfoo.so".
	Name string
	Data []byte
}

// Archive is the result of walking one APK: its DEX payloads in
// load order (classes.dex first, then classes2.dex, classes3.dex...
// per spec.md's primary-dex convention) and its native libraries.
type Archive struct {
	Dex  []Entry
	Libs []Entry
}

// Open walks r (an *os.File or any io.ReaderAt sized by size) as a ZIP
// archive and classifies every entry. A corrupt central directory is
// reported as-is. A DEX, native-library or nested-archive entry that
// fails to decompress aborts the walk: Open returns that entry's error
// and no Archive.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "apk: opening zip")
	}
	registerDeflate(zr)
	return walk(zr, 0)
}

// registerDeflate swaps in klauspost's flate for the standard
// library's, same as avast/apkparser does for the same large
// multi-dex-archive workload: it decompresses several times faster
// with no behavioral difference the ZIP reader can observe.
func registerDeflate(zr *zip.Reader) {
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
}

func walk(zr *zip.Reader, depth int) (*Archive, error) {
	arc := &Archive{}
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		switch {
		case dexNamePattern.MatchString(path.Base(name)) && path.Dir(name) == ".":
			data, err := readZipFile(f)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "apk: reading %s", name)
			}
			arc.Dex = append(arc.Dex, Entry{Name: name, Data: data})

		case isNativeLib(name):
			data, err := readZipFile(f)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "apk: reading %s", name)
			}
			arc.Libs = append(arc.Libs, Entry{Name: name, Data: data})

		case isNestedArchive(name) && depth < maxNestingDepth:
			nested, err := readNested(f, depth)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "apk: nested archive %s", name)
			}
			arc.Dex = append(arc.Dex, prefixed(nested.Dex, name)...)
			arc.Libs = append(arc.Libs, prefixed(nested.Libs, name)...)
		}
	}

	sort.Slice(arc.Dex, func(i, j int) bool { return dexLoadOrder(arc.Dex[i].Name) < dexLoadOrder(arc.Dex[j].Name) })
	return arc, nil
}

// dexLoadOrder gives classes.dex order 0, classesN.dex order N, so the
// primary dex always sorts first regardless of ZIP central-directory
// order.
func dexLoadOrder(name string) int {
	base := path.Base(name)
	if base == "classes.dex" {
		return 0
	}
	n := 0
	for _, c := range base[len("classes"):] {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func isNativeLib(name string) bool {
	dir, file := path.Split(name)
	return path.Ext(file) == ".so" && len(dir) >= len("lib/") && dir[:4] == "lib/"
}

func isNestedArchive(name string) bool {
	return path.Ext(name) == ".apk" || path.Ext(name) == ".zip"
}

func readNested(f *zip.File, depth int) (*Archive, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	nestedReader, err := zip.NewReader(sliceReaderAt(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	registerDeflate(nestedReader)
	return walk(nestedReader, depth+1)
}

func prefixed(entries []Entry, prefix string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Name: prefix + "!/" + e.Name, Data: e.Data}
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// sliceReaderAt adapts a byte slice already held in memory (a nested
// archive's decompressed bytes) to io.ReaderAt without a temp file.
type sliceReaderAt []byte

func (s sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s)) {
		return 0, io.EOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
