package dto

// ErrorResponse cuerpo de error HTTP. Message es siempre apto para el usuario final.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImageFile imagen recibida del cliente, ya leída en memoria.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ContentTypeOrDefault devuelve el content type declarado o image/jpeg.
func (f ImageFile) ContentTypeOrDefault() string {
	if f.ContentType == "" {
		return "image/jpeg"
	}
	return f.ContentType
}
