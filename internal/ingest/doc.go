// Package ingest turns user-selected files into photo card payloads.
//
// Each file passes through three stages: validation (is it an allowed image),
// normalization (HEIC/HEIF is converted to JPEG through a pluggable Codec),
// and transformation (preview and print variants from internal/raster).
// Pipeline.Run processes a batch strictly in order; a failing file is logged
// and recorded in its Outcome while the rest of the batch continues.
package ingest
