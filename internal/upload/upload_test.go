package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	apperrors "go-image-detector/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestAccept_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		file     *File
		wantType apperrors.ErrorType
	}{
		{"nil file", nil, apperrors.ErrorTypeMissingFile},
		{"text file", &File{Name: "a.txt", ContentType: "text/plain", Data: []byte("hi")}, apperrors.ErrorTypeInvalidFile},
		{"pdf", &File{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, apperrors.ErrorTypeInvalidFile},
		{"no declared type", &File{Name: "a.png", Data: pngBytes}, apperrors.ErrorTypeInvalidFile},
		{"prefix inside type", &File{Name: "x", ContentType: "application/image/png", Data: pngBytes}, apperrors.ErrorTypeInvalidFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Accept(tt.file)
			require.Error(t, err)
			assert.Nil(t, img)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestAccept_EmptyImageIsNotInspected(t *testing.T) {
	img, err := Accept(&File{Name: "blank.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, 0, img.Size())
	assert.Equal(t, "data:image/png;base64,", img.DataURL())
}

func TestAccept_Image(t *testing.T) {
	f := &File{Name: "cat.png", ContentType: "Image/PNG", Data: pngBytes}

	img, err := Accept(f)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", img.Name())
	assert.Equal(t, "image/png", img.MIMEType())
	assert.Equal(t, len(pngBytes), img.Size())
	assert.Equal(t, "iVBORw0KGgo=", img.Base64())
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", img.DataURL())

	read, err := io.ReadAll(img.Reader())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, read)
}

func TestAccept_CopiesInput(t *testing.T) {
	data := append([]byte(nil), pngBytes...)
	img, err := Accept(&File{ContentType: "image/png", Data: data})
	require.NoError(t, err)

	data[0] = 0
	assert.Equal(t, pngBytes, img.Data())

	out := img.Data()
	out[1] = 0
	assert.Equal(t, pngBytes, img.Data())
}

func TestFromMultipart(t *testing.T) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="cat.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, fh, err := req.FormFile("image")
	require.NoError(t, err)

	f, err := FromMultipart(fh)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, pngBytes, f.Data)
}

func TestFromMultipart_Nil(t *testing.T) {
	_, err := FromMultipart(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingFile))
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(DataURL("image/gif", []byte("GIF89a")), "data:image/gif;base64,"))
}
