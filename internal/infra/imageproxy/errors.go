package imageproxy

import "errors"

var (
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("imageproxy: invalid image url")

	// ErrPrivateIP is returned when the image host resolves to a private address.
	ErrPrivateIP = errors.New("imageproxy: private address not allowed")

	// ErrBodyTooLarge is returned when the upstream image exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("imageproxy: image too large")

	// ErrTooManyPixels is returned when the declared image dimensions exceed
	// MaxPixels. It is checked before the pixels are decoded.
	ErrTooManyPixels = errors.New("imageproxy: image dimensions too large")

	// ErrUnsupportedFormat is returned for images that are neither JPEG nor PNG.
	ErrUnsupportedFormat = errors.New("imageproxy: unsupported image format")

	// ErrUpstream is returned when the image host answers with a non-200 status.
	ErrUpstream = errors.New("imageproxy: upstream error")

	// ErrTooManyRedirects is returned when the redirect chain exceeds MaxRedirects.
	ErrTooManyRedirects = errors.New("imageproxy: too many redirects")
)
