// Package imaging converts images to and from the base64 payloads that cross
// the tool boundary.
//
// # Decoding
//
// A payload is decoded in two layers, each with its own error type:
//
//  1. Transport: base64 text -> bytes (DecodePayload). Failure yields
//     *TransportError.
//  2. Container: bytes -> raster (DecodeBytes). Failure yields *DecodeError.
//
// DecodeColor returns the color raster; DecodeGray additionally converts to
// an 8-bit *image.Gray, the form consumed by feature extraction. Supported
// containers are PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Decoding never panics: a panicking decoder is reported as *DecodeError.
//
// # Encoding
//
// EncodeImage PNG-encodes a raster (used for screen captures); EncodeFile
// passes an existing file's bytes through unchanged. Both return a Payload
// with the dimensions and MIME type.
//
// # Thread Safety
//
// All functions are stateless. Every call returns freshly allocated rasters
// owned by the caller.
package imaging
