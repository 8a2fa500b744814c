// Package shapefile reads and writes field geometry as ESRI shapefiles,
// reprojecting between the internal CRS (EPSG:25832) and the export CRS
// (WGS84, EPSG:4326).
package shapefile

import (
	"os"
	"strings"

	"github.com/wroge/wgs84"

	"github.com/hallgard/furrow/internal/models"
)

// wgs84WKT is the .prj sidecar content written next to every exported
// shapefile. go-shp itself only produces .shp/.shx/.dbf.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

var (
	epsg        = wgs84.EPSG()
	utmToLonLat = wgs84.Transform(epsg.Code(25832), epsg.Code(4326))
	lonLatToUTM = wgs84.Transform(epsg.Code(4326), epsg.Code(25832))
)

// toWGS84 reprojects a point from EPSG:25832 to lon/lat degrees.
func toWGS84(p models.Point) (lon, lat float64) {
	lon, lat, _ = utmToLonLat(p.X, p.Y, 0)
	return lon, lat
}

// fromWGS84 reprojects lon/lat degrees back to EPSG:25832.
func fromWGS84(lon, lat float64) models.Point {
	x, y, _ := lonLatToUTM(lon, lat, 0)
	return models.Point{X: x, Y: y}
}

// storedCRS inspects the .prj sidecar of a shapefile and reports whether
// the stored geometry is projected (EPSG:25832) rather than geographic.
// When no .prj exists the geometry is assumed to be WGS84; assumed is
// true in that case so callers can attach a warning note. There is no
// way to verify the assumption against the data itself.
func storedCRS(shpPath string) (projected, assumed bool) {
	data, err := os.ReadFile(sidecarPath(shpPath, ".prj"))
	if err != nil {
		return false, true
	}
	wkt := string(data)
	if strings.HasPrefix(strings.TrimSpace(wkt), "PROJCS") || strings.Contains(wkt, "25832") {
		return true, false
	}
	return false, false
}
