// Package catalog resolves which farms and fields exist under an import
// root, for both the legacy Cerea text layout and the round-trip
// shapefile layout.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hallgard/furrow/internal/apperr"
	"github.com/hallgard/furrow/internal/models"
)

// Descriptor and record file names of the legacy layout.
const (
	OriginDescriptor = "universe.txt"
	ContourRecord    = "contour.txt"
	PatternsRecord   = "patterns.txt"
)

// Collection directory names of the round-trip layout.
const (
	ContoursDir = "contours"
	PatternsDir = "patterns"
)

// Farms lists farm directories directly under the import root.
func Farms(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var farms []string
	for _, e := range entries {
		if e.IsDir() {
			farms = append(farms, e.Name())
		}
	}
	return farms, nil
}

// Fields lists the fields of one farm for the given import mode. In the
// legacy layout fields are subdirectories; in the round-trip layout the
// field set is the union of stems found in the contours/ and patterns/
// collections.
func Fields(root string, mode models.ImportMode, farm string) ([]string, error) {
	farmPath := filepath.Join(root, farm)
	if mode == models.ModeCereaTxt {
		entries, err := os.ReadDir(farmPath)
		if err != nil {
			return nil, err
		}
		var fields []string
		for _, e := range entries {
			if e.IsDir() {
				fields = append(fields, e.Name())
			}
		}
		return fields, nil
	}
	return exportedFields(farmPath), nil
}

// exportedFields collects field stems from a round-trip farm directory.
func exportedFields(farmPath string) []string {
	stems := make(map[string]struct{})
	collect := func(dir, suffix string) {
		matches, _ := filepath.Glob(filepath.Join(farmPath, dir, "*"+suffix+".shp"))
		for _, m := range matches {
			stem := strings.TrimSuffix(filepath.Base(m), suffix+".shp")
			if stem != "" {
				stems[stem] = struct{}{}
			}
		}
	}
	collect(PatternsDir, "_patterns")
	collect(ContoursDir, "_contour")

	out := make([]string, 0, len(stems))
	for s := range stems {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// FieldSources returns the contour and patterns source paths for a field.
// The paths are not checked for existence; both sources are optional at
// the field level.
func FieldSources(root string, key models.FieldKey) (contour, patterns string) {
	if key.Mode == models.ModeCereaTxt {
		fieldPath := filepath.Join(root, key.Farm, key.Field)
		return filepath.Join(fieldPath, ContourRecord), filepath.Join(fieldPath, PatternsRecord)
	}
	farmPath := filepath.Join(root, key.Farm)
	return filepath.Join(farmPath, ContoursDir, key.Field+"_contour.shp"),
		filepath.Join(farmPath, PatternsDir, key.Field+"_patterns.shp")
}

// ResolveOriginPath locates the origin descriptor for a legacy root,
// looking in the root itself and one level above (archives are often
// built from a farm subtree with the descriptor next to it).
func ResolveOriginPath(root string) (string, error) {
	direct := filepath.Join(root, OriginDescriptor)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}
	parent := filepath.Join(filepath.Dir(root), OriginDescriptor)
	if _, err := os.Stat(parent); err == nil {
		return parent, nil
	}
	return "", apperr.ErrNoOrigin
}

// ResolveImportRoot finds the actual import root under an extraction
// directory. Archives frequently extract into a single wrapping folder,
// so the directory itself and each of its immediate subdirectories are
// considered, in that order. When nothing matches, the extraction
// directory itself is returned and later validation reports the problem.
func ResolveImportRoot(extractDir string, mode models.ImportMode) string {
	candidates := []string{extractDir}
	if entries, err := os.ReadDir(extractDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				candidates = append(candidates, filepath.Join(extractDir, e.Name()))
			}
		}
	}

	if mode == models.ModeCereaTxt {
		for _, candidate := range candidates {
			if _, err := os.Stat(filepath.Join(candidate, OriginDescriptor)); err != nil {
				continue
			}
			if hasLegacyFarms(candidate) {
				return candidate
			}
			// Descriptor present but farms nested one more level down.
			if nested := nestedFarmRoots(candidate); len(nested) > 0 {
				return nested[0]
			}
		}
		return extractDir
	}

	for _, candidate := range candidates {
		farms, err := Farms(candidate)
		if err != nil {
			continue
		}
		for _, farm := range farms {
			farmPath := filepath.Join(candidate, farm)
			if dirExists(filepath.Join(farmPath, PatternsDir)) || dirExists(filepath.Join(farmPath, ContoursDir)) {
				return candidate
			}
		}
	}
	return extractDir
}

// looksLikeFieldDir decides whether a directory is plausibly a legacy
// field folder. Folders holding known record files qualify immediately;
// empty leaf folders are tolerated as fields, but wrapper directories
// containing further subfolders are not.
func looksLikeFieldDir(fieldPath string) bool {
	info, err := os.Stat(fieldPath)
	if err != nil || !info.IsDir() {
		return false
	}
	if fileExists(filepath.Join(fieldPath, ContourRecord)) || fileExists(filepath.Join(fieldPath, PatternsRecord)) {
		return true
	}
	entries, err := os.ReadDir(fieldPath)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			return false
		}
	}
	return true
}

// hasLegacyFarms reports whether root contains at least one farm/field
// tree of the legacy layout.
func hasLegacyFarms(root string) bool {
	farms, err := Farms(root)
	if err != nil {
		return false
	}
	for _, farm := range farms {
		fields, err := os.ReadDir(filepath.Join(root, farm))
		if err != nil {
			continue
		}
		for _, f := range fields {
			if looksLikeFieldDir(filepath.Join(root, farm, f.Name())) {
				return true
			}
		}
	}
	return false
}

// nestedFarmRoots returns subdirectories of candidate that themselves
// hold legacy farm trees, sorted by name.
func nestedFarmRoots(candidate string) []string {
	entries, err := os.ReadDir(candidate)
	if err != nil {
		return nil
	}
	var roots []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(candidate, e.Name())
		if hasLegacyFarms(sub) {
			roots = append(roots, sub)
		}
	}
	sort.Strings(roots)
	return roots
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
