// Package storage keeps uploaded images (logos, product photos, banners).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
)

var ErrUnsupportedType = errors.New("storage: unsupported image type")

// Store persists an object under key and returns its public URL.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var unsafeChars = regexp.MustCompile(`[^\w\-]`)

// ImageKey builds a unique object key like "products/1718000000000_pizza.jpg".
// Duplicate extensions and unsafe characters in the original name are dropped.
func ImageKey(folder, filename, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", ErrUnsupportedType
	}

	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	for {
		e := strings.ToLower(path.Ext(base))
		if e == "" || (e != ".jpg" && e != ".jpeg" && e != ".png" && e != ".gif" && e != ".webp") {
			break
		}
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	base = unsafeChars.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "_")
	if base == "" || base == "_" {
		base = "image"
	}

	return fmt.Sprintf("%s/%d_%s%s", folder, time.Now().UnixNano(), base, ext), nil
}

// Sniff detects the content type from the first bytes of r. The returned
// reader still yields the whole content.
func Sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head), nil
}
