// Package build runs the site build pipeline.
//
// All execution paths (CLI build, preview rebuilds, scheduled daemon builds)
// route through Builder.Run. Stages run in order against a staging workspace:
//
//	prepare → load_data → map_pages → copy_assets → render_pages → rewrite_html → promote
//
// The output directory is only replaced when every stage succeeded.
package build
