// Package raster decodes photo payloads into bitmaps and derives the two
// embedded variants every photo card carries: an on-screen preview and a
// print rendition. Both are bounded by a maximum side length and the print
// rendition is always JPEG.
//
// Decoding covers JPEG, PNG and GIF from the standard library plus BMP, TIFF
// and WebP from golang.org/x/image. Resampling and encoding are delegated to
// github.com/disintegration/imaging.
package raster
