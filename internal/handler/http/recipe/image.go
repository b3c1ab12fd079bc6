package recipe

import (
	"errors"
	"net/http"
	"strconv"

	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/infra/imageproxy"
)

// ImageHandler serves GET /images?url=, a resized copy of a recipe image.
type ImageHandler struct{ Proxy Thumbnailer }

func (h ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		respond.Error(w, http.StatusBadRequest, errURLRequired)
		return
	}

	thumb, err := h.Proxy.Thumbnail(r.Context(), raw)
	if err != nil {
		code, msg := imageStatus(err)
		respond.Fail(w, code, msg, err)
		return
	}

	w.Header().Set("Content-Type", thumb.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(thumb.Data)
}

func imageStatus(err error) (int, string) {
	switch {
	case errors.Is(err, imageproxy.ErrInvalidURL), errors.Is(err, imageproxy.ErrPrivateIP):
		return http.StatusBadRequest, "image url not allowed"
	case errors.Is(err, imageproxy.ErrBodyTooLarge), errors.Is(err, imageproxy.ErrTooManyPixels):
		return http.StatusRequestEntityTooLarge, "image too large"
	case errors.Is(err, imageproxy.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported image format"
	default:
		return http.StatusBadGateway, "image could not be fetched"
	}
}
