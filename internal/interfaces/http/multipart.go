package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/jhoicas/colmado-api/internal/application/dto"
)

// maxImageBytes tope por archivo recibido.
const maxImageBytes = 5 << 20

// formValue primer valor del campo, recortado.
func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// formList acepta el campo repetido o una lista separada por comas.
func formList(form *multipart.Form, key string) []string {
	var out []string
	for _, v := range form.Value[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// readImages lee en memoria los archivos del campo indicado, en el orden recibido.
func readImages(form *multipart.Form, key string) ([]dto.ImageFile, error) {
	headers := form.File[key]
	out := make([]dto.ImageFile, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func readImage(fh *multipart.FileHeader) (dto.ImageFile, error) {
	if fh.Size > maxImageBytes {
		return dto.ImageFile{}, fmt.Errorf("%s supera el tamaño máximo", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return dto.ImageFile{}, fmt.Errorf("abrir %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return dto.ImageFile{}, fmt.Errorf("leer %s: %w", fh.Filename, err)
	}
	if len(data) > maxImageBytes {
		return dto.ImageFile{}, fmt.Errorf("%s supera el tamaño máximo", fh.Filename)
	}
	return dto.ImageFile{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}
