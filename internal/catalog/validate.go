package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/shapefile"
)

// ValidateStructure inspects an import root before any geometry work and
// reports what a conversion run would encounter. Issues are fatal for the
// whole root; warnings describe per-field partial conditions that a run
// would tolerate.
func ValidateStructure(root string, mode models.ImportMode) *models.ValidationReport {
	report := &models.ValidationReport{
		Issues:   []string{},
		Warnings: []string{},
	}

	farms, err := Farms(root)
	if err != nil || len(farms) == 0 {
		report.Issues = append(report.Issues, "No farm folders found in import root.")
		return report
	}
	report.Farms = len(farms)

	if mode == models.ModeCereaTxt {
		validateLegacy(root, farms, report)
	} else {
		validateRoundTrip(root, farms, report)
	}
	return report
}

func validateLegacy(root string, farms []string, report *models.ValidationReport) {
	if _, err := ResolveOriginPath(root); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("Missing required file: %s", OriginDescriptor))
	}

	for _, farm := range farms {
		fields, err := Fields(root, models.ModeCereaTxt, farm)
		if err != nil || len(fields) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("No field folders in farm: %s", farm))
			continue
		}
		for _, field := range fields {
			report.Fields++
			key := models.FieldKey{Mode: models.ModeCereaTxt, Farm: farm, Field: field}
			contour, patterns := FieldSources(root, key)
			hasContour := fileExists(contour)
			hasPatterns := fileExists(patterns)
			if !hasContour {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Missing optional %s: %s/%s", ContourRecord, farm, field))
			}
			if !hasPatterns {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("Missing optional %s: %s/%s", PatternsRecord, farm, field))
			}
			if !hasContour && !hasPatterns {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("No source files in field folder: %s/%s (needs %s and/or %s)",
						farm, field, ContourRecord, PatternsRecord))
			}
		}
	}
}

func validateRoundTrip(root string, farms []string, report *models.ValidationReport) {
	for _, farm := range farms {
		farmPath := filepath.Join(root, farm)
		if !dirExists(filepath.Join(farmPath, PatternsDir)) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Missing optional folder: %s/%s", farm, PatternsDir))
		}
		if !dirExists(filepath.Join(farmPath, ContoursDir)) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Missing optional folder: %s/%s", farm, ContoursDir))
		}

		fields := exportedFields(farmPath)
		if len(fields) == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("No field shapefiles found in farm: %s (expected *_patterns.shp and/or *_contour.shp)", farm))
			continue
		}

		for _, field := range fields {
			report.Fields++
			key := models.FieldKey{Mode: models.ModeShapefile, Farm: farm, Field: field}
			contour, patterns := FieldSources(root, key)
			checkShapefileSource(report, farm, PatternsDir, patterns)
			checkShapefileSource(report, farm, ContoursDir, contour)
		}
	}
}

func checkShapefileSource(report *models.ValidationReport, farm, kind, path string) {
	name := filepath.Base(path)
	if !fileExists(path) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Missing optional shapefile: %s/%s/%s", farm, kind, name))
		return
	}
	if missing := shapefile.MissingSidecars(path); len(missing) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Missing sidecar(s) for shapefile: %s/%s/%s -> %s",
				farm, kind, name, strings.Join(missing, ", ")))
	}
	if !shapefile.HasCRS(path) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("No CRS metadata for shapefile: %s/%s/%s (WGS84 will be assumed)", farm, kind, name))
	}
}
