// Package pexels searches Pexels for background footage and downloads the
// rendition closest to the output frame height.
package pexels
