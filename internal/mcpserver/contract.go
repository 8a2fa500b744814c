package mcpserver

// ExportLayoutContract describes the shapefile tree produced by export_all,
// for LLM consumers that post-process the archive.
const ExportLayoutContract = `# Furrow Export Tree Layout

Every export produces one directory tree with this structure:

` + "```" + `
<farm>/
  contours/
    <field>_contour.shp     # boundary polygon (plus .shx, .dbf, .prj)
  patterns/
    <field>_patterns.shp    # guidance tracks (plus .shx, .dbf, .prj)
` + "```" + `

## Rules

1. **Coordinates are WGS84** (EPSG:4326, lon/lat degrees). The .prj sidecar
   carries the matching well-known text.
2. **A field may lack either file.** A field without a usable boundary gets
   no contour shapefile; a field without tracks gets no patterns shapefile.
   Fields with neither are skipped and reported.
3. **Patterns attributes:** each track row carries an integer ` + "`" + `id` + "`" + ` and a
   string ` + "`" + `name` + "`" + ` (at most 64 characters, truncated by the dbf format).
4. **Row order is display order.** Consumers must not re-sort by id; the
   user-chosen ordering is encoded in the record sequence.
5. **File names** use the field name verbatim plus the ` + "`" + `_contour` + "`" + ` or
   ` + "`" + `_patterns` + "`" + ` suffix.
`
