package model

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultExtension is used whenever no usable extension can be derived from a URL
	DefaultExtension = "jpg"

	maxExtensionLength = 4
)

// ExtensionFromURL derives a file extension from the trailing path segment of rawURL.
// Query string and fragment are ignored. The content type is not inspected: an empty
// extension, one longer than four characters, or one containing anything but letters
// and digits falls back to DefaultExtension.
func ExtensionFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExtension
	}
	u := path.Base(parsed.Path)

	i := strings.LastIndex(u, ".")
	if i < 0 {
		return DefaultExtension
	}
	ext := u[i+1:]

	if ext == "" || len([]rune(ext)) > maxExtensionLength {
		return DefaultExtension
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return DefaultExtension
		}
	}
	return ext
}

// ImageFileName returns the name for the index-th (1-based) image of a run
func ImageFileName(index int, sourceURL string) string {
	return "image_" + strconv.Itoa(index) + "." + ExtensionFromURL(sourceURL)
}
