// Package upload turns a user-supplied file into an image accepted for
// analysis, or rejects it.
package upload

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	apperrors "go-image-detector/internal/errors"
)

const imagePrefix = "image/"

// File is a candidate file as received from the user or a remote source.
// ContentType is the declared type, not a sniffed one.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Image is a file that passed validation. It is never modified after Accept.
type Image struct {
	name     string
	mimeType string
	data     []byte
}

// Accept validates a candidate file. A nil file is a missing-file error and a
// declared type outside image/* is an invalid-file error. The body is not
// inspected.
func Accept(f *File) (*Image, error) {
	if f == nil {
		return nil, apperrors.NewMissingFileError()
	}
	mimeType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if !strings.HasPrefix(mimeType, imagePrefix) {
		return nil, apperrors.NewInvalidFileError(fmt.Sprintf("declared type %q", f.ContentType))
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Image{name: f.Name, mimeType: mimeType, data: data}, nil
}

// FromMultipart reads an uploaded form file. The declared type is taken from
// the part header.
func FromMultipart(fh *multipart.FileHeader) (*File, error) {
	if fh == nil {
		return nil, apperrors.NewMissingFileError()
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (i *Image) Name() string     { return i.name }
func (i *Image) MIMEType() string { return i.mimeType }
func (i *Image) Size() int        { return len(i.data) }

// Data returns a copy of the image bytes.
func (i *Image) Data() []byte {
	out := make([]byte, len(i.data))
	copy(out, i.data)
	return out
}

// Reader returns a fresh reader over the image bytes.
func (i *Image) Reader() io.Reader {
	return bytes.NewReader(i.data)
}

// Base64 is the transport encoding of the image bytes.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

// DataURL is the inline preview representation.
func (i *Image) DataURL() string {
	return DataURL(i.mimeType, i.data)
}

// DataURL encodes data as a base64 data URL of the given type.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
