// Package media reads the metadata the catalog stores for each image: the
// modification time and the pixel dimensions.
//
// Dimensions come from image.DecodeConfig, which parses only the header, so
// extraction cost does not grow with image size. Decoders are registered for
// JPEG, PNG and GIF from the standard library and for WebP and BMP from
// golang.org/x/image.
package media
