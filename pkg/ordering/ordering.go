package ordering

import (
	"math"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MinorLimit is the exclusive upper bound the authoring convention keeps
// minor chapter numbers under. Keys of titles at or above it collide with
// the next major chapter.
const MinorLimit = 100

var (
	majorMinorRe = regexp.MustCompile(`(\d+)\.(\d+)`)
	majorRe      = regexp.MustCompile(`(\d+)`)
	moduleLabel  = regexp.MustCompile(`(?i)\bmodule\s*(\d+)\s*(?:[:\-–—.]?\s*(.*))?$`)
	moduleFile   = regexp.MustCompile(`(?i)module[\s_-]*(\d+)`)
)

// MaxKey bounds ordering keys so they fit a 32-bit column.
const MaxKey = math.MaxInt32

// Key is a derived chapter ordering key.
type Key struct {
	Value    int
	Overflow bool // minor number reached MinorLimit
	// OutOfRange is set when the numbers are too large for a key; Value
	// is then 0.
	OutOfRange bool
}

// ChapterKey derives the ordering key from a title: "major.minor" gives
// major*100+minor, a bare "major" gives major*100, anything else 0.
func ChapterKey(title string) Key {
	if m := majorMinorRe.FindStringSubmatch(title); m != nil {
		major, errMajor := strconv.Atoi(m[1])
		minor, errMinor := strconv.Atoi(m[2])
		if errMajor != nil || errMinor != nil || minor > MaxKey || major > (MaxKey-minor)/100 {
			return Key{OutOfRange: true}
		}
		return Key{Value: major*100 + minor, Overflow: minor >= MinorLimit}
	}
	if m := majorRe.FindStringSubmatch(title); m != nil {
		major, err := strconv.Atoi(m[1])
		if err != nil || major > MaxKey/100 {
			return Key{OutOfRange: true}
		}
		return Key{Value: major * 100}
	}
	return Key{}
}

// ModuleLabel is a parsed "Module <n>[: name]" label.
type ModuleLabel struct {
	ID   int
	Name string
}

// ParseModuleLabel reads a label like "Module 3: Pointers". The name part
// is optional.
func ParseModuleLabel(text string) (ModuleLabel, bool) {
	text = strings.Join(strings.Fields(text), " ")
	m := moduleLabel.FindStringSubmatch(text)
	if m == nil {
		return ModuleLabel{}, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return ModuleLabel{}, false
	}
	return ModuleLabel{ID: id, Name: strings.TrimSpace(m[2])}, true
}

// ModuleFromFilename reads `module<n>` from a file name or path. The last
// path element that carries the pattern wins.
func ModuleFromFilename(name string) (int, bool) {
	parts := strings.Split(filepath.ToSlash(name), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if m := moduleFile.FindStringSubmatch(parts[i]); m != nil {
			id, err := strconv.Atoi(m[1])
			if err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

// Resolution is the outcome of reconciling label and filename module ids.
type Resolution struct {
	ID       int
	Found    bool
	Conflict bool // both present and different; the filename id won
	LabelID  int
	FileID   int
}

// ResolveModule reconciles the two module id sources. The filename takes
// precedence on disagreement.
func ResolveModule(label ModuleLabel, hasLabel bool, fileID int, hasFile bool) Resolution {
	r := Resolution{LabelID: label.ID, FileID: fileID}
	switch {
	case hasFile && hasLabel:
		r.ID, r.Found = fileID, true
		r.Conflict = fileID != label.ID
	case hasFile:
		r.ID, r.Found = fileID, true
	case hasLabel:
		r.ID, r.Found = label.ID, true
	}
	return r
}

// Slug is the base name of a file without its extension.
func Slug(name string) string {
	base := filepath.Base(filepath.FromSlash(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LinkSlug reduces a link target (relative path, possibly with a query or
// fragment) to a slug. In-page anchors and external URLs yield "".
func LinkSlug(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if i := strings.Index(href, "://"); i >= 0 {
		return ""
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimSuffix(href, "/")
	base := path.Base(href)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
