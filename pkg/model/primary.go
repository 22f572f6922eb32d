package model

import "regexp"

var primaryDexPattern = regexp.MustCompile(`^classes\d*\.dex$`)

// IsPrimaryDex reports whether an archive-relative dex path is one of
// the primary dex files (`classes.dex`, `classesN.dex` at the archive
// root), as opposed to a secondary dex packaged under some other path
// (app-bundle split dex, a plugin module, and the like).
func IsPrimaryDex(archivePath string) bool {
	return primaryDexPattern.MatchString(archivePath)
}

// PrimaryDexIndices returns, in ingestion order, the indices into
// Context.DexFiles whose archive path classifies as primary.
func (c *Context) PrimaryDexIndices() []int {
	var out []int
	for i, name := range c.DexNames {
		if IsPrimaryDex(name) {
			out = append(out, i)
		}
	}
	return out
}

// PrimaryClasses returns every class defined in a primary dex file.
func (c *Context) PrimaryClasses() []*Class {
	var out []*Class
	for _, class := range c.Classes {
		if IsPrimaryDex(c.DexNames[class.DexIndex]) {
			out = append(out, class)
		}
	}
	return out
}
