// Package documents builds the document objects the provider accepts for upload.
package documents

import (
	"encoding/base64"
	"net/http"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Type is the provider's document type id ("art").
type Type int

const (
	IdentityCard           Type = 1
	AcquiredPossessionForm Type = 2
	SignedContract         Type = 3
	DebitAuthorization     Type = 4
	Misc                   Type = 99
)

func (t Type) String() string {
	switch t {
	case IdentityCard:
		return "identity card"
	case AcquiredPossessionForm:
		return "acquired possession form"
	case SignedContract:
		return "signed contract"
	case DebitAuthorization:
		return "debit authorization"
	case Misc:
		return "misc"
	default:
		return "type " + strconv.Itoa(int(t))
	}
}

// ParseType accepts the numeric id.
func ParseType(s string) (Type, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "ParseType %q", s)
	}
	switch t := Type(n); t {
	case IdentityCard, AcquiredPossessionForm, SignedContract, DebitAuthorization, Misc:
		return t, nil
	}
	return 0, errors.Errorf("unknown document type %d", n)
}

// Document is one upload entry.
type Document struct {
	Type      Type   `json:"art"`
	Extension string `json:"ext"`
	// Content is base64 encoded.
	Content string `json:"doc"`
}

// New encodes data as a document.
func New(t Type, ext string, data []byte) Document {
	return Document{Type: t, Extension: ext, Content: base64.StdEncoding.EncodeToString(data)}
}

// FromBase64 wraps content that is already base64 encoded.
func FromBase64(t Type, ext, content string) Document {
	return Document{Type: t, Extension: ext, Content: content}
}

// FromFile reads a regular file into a document.
func FromFile(t Type, ext, path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "file not found or not a file: %s", path)
	}
	if !info.Mode().IsRegular() {
		return Document{}, errors.Errorf("file not found or not a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "FromFile ReadFile %s", path)
	}
	return New(t, ext, data), nil
}

// Bytes returns the decoded content.
func (d Document) Bytes() ([]byte, error) {
	return Decode(d.Content)
}

// Decode decodes a base64 document payload, as returned by the documents endpoints.
func Decode(content string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, errors.Wrap(err, "Decode")
	}
	return data, nil
}

// Stream writes a base64 PDF to w as a file download.
func Stream(w http.ResponseWriter, content, filename string) error {
	data, err := Decode(content)
	if err != nil {
		return err
	}
	if filename == "" {
		filename = "document.pdf"
	}
	w.Header().Set("Content-Description", "File Transfer")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "Stream write")
	}
	return nil
}
