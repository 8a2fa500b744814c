package shapefile

import (
	"os"
	"strings"
)

// requiredSidecars are the companion files a shapefile cannot be read
// without: the shape index and the attribute table. The .prj file is not
// required; its absence triggers the WGS84 assumption instead.
var requiredSidecars = []string{".shx", ".dbf"}

// sidecarPath swaps the extension of a .shp path.
func sidecarPath(shpPath, ext string) string {
	return strings.TrimSuffix(shpPath, ".shp") + ext
}

// MissingSidecars returns the extensions of required companion files that
// are absent for the given .shp path. A non-empty result means the source
// exists but is unusable, which is a different condition from the .shp
// file itself being absent.
func MissingSidecars(shpPath string) []string {
	var missing []string
	for _, ext := range requiredSidecars {
		if _, err := os.Stat(sidecarPath(shpPath, ext)); err != nil {
			missing = append(missing, ext)
		}
	}
	return missing
}

// HasCRS reports whether a .prj sidecar exists for the given .shp path.
func HasCRS(shpPath string) bool {
	_, err := os.Stat(sidecarPath(shpPath, ".prj"))
	return err == nil
}
