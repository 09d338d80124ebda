package transform

// Canonical image format names, also used as the values of the format
// transformation. Order of formatPriority decides auto format negotiation.
const (
	FormatWebP = "webp"
	FormatAVIF = "avif"
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatHEIF = "heif"
	FormatTIFF = "tiff"
	FormatRaw  = "raw"
	FormatGIF  = "gif"
)

var formatPriority = []string{
	FormatWebP,
	FormatAVIF,
	FormatJPEG,
	FormatPNG,
	FormatHEIF,
	FormatTIFF,
	FormatRaw,
	FormatGIF,
}

var formatAliases = map[string]string{
	"jpg":   FormatJPEG,
	"jpeg":  FormatJPEG,
	"png":   FormatPNG,
	"webp":  FormatWebP,
	"avif":  FormatAVIF,
	"heif":  FormatHEIF,
	"heic":  FormatHEIF,
	"tiff":  FormatTIFF,
	"tif":   FormatTIFF,
	"gif":   FormatGIF,
	"raw":   FormatRaw,
	"svg":   "svg",
	"auto":  FormatAuto,
}

var formatMIME = map[string]string{
	FormatWebP: "image/webp",
	FormatAVIF: "image/avif",
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatHEIF: "image/heif",
	FormatTIFF: "image/tiff",
	FormatRaw:  "application/octet-stream",
	FormatGIF:  "image/gif",
}

// CanonicalFormat maps a format name or common alias to its canonical name.
func CanonicalFormat(name string) (string, bool) {
	f, ok := formatAliases[name]
	return f, ok
}

// FormatMIME returns the MIME type of a canonical format name.
func FormatMIME(format string) (string, bool) {
	m, ok := formatMIME[format]
	return m, ok
}

// FormatOfContentType maps a MIME type back to a canonical format name.
func FormatOfContentType(contentType string) (string, bool) {
	for f, m := range formatMIME {
		if m == contentType {
			return f, true
		}
	}

	return "", false
}
