// Package face computes the analog clock face: hand angles, hour markers,
// date labels, status glyphs and their colors. Everything here is pure; the
// daemon in the repository root paints the resulting Scene.
package face
