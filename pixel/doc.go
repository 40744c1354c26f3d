// Package pixel implements images over scanout memory in DRM pixel formats.
//
// The image types are compatible with Go's native [color.Color] and [image.Image] / [draw.Image]
// interfaces and operate directly on the mapped bytes of a buffer, so drawing into them
// changes what the display controller scans out.
package pixel
