// Package heifconvert wraps the libheif heif-convert command so HEIC/HEIF
// photos can be normalized to JPEG before they enter the raster pipeline.
//
// The client writes the payload to a private temp directory, invokes the
// converter, and collects every image it produced. Multi-image containers
// yield one payload per image in index order. Command execution is
// abstracted behind Executor so tests can inject a fake.
package heifconvert
