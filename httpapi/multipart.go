package httpapi

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// errNotMultipart marks a request whose body is not base64-encoded
// multipart form data.
var errNotMultipart = errors.New("symphony: multipart form data required")

type filePart struct {
	filename string
	data     []byte
}

// parseForm decodes an API Gateway multipart body into its form fields
// plus at most one buffered file part. fileField selects which file part
// to keep; empty keeps the first file part regardless of field name.
func parseForm(req events.APIGatewayV2HTTPRequest, fileField string) (map[string]string, *filePart, error) {
	contentType := headerValue(req.Headers, "content-type")
	if req.Body == "" || !req.IsBase64Encoded || contentType == "" {
		return nil, nil, errNotMultipart
	}

	body, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("decode body: %w", err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, nil, errNotMultipart
	}

	form := map[string]string{}
	var file *filePart

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read part: %w", err)
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read part body: %w", err)
		}

		if part.FileName() == "" {
			form[part.FormName()] = string(data)
			continue
		}
		if file != nil || (fileField != "" && part.FormName() != fileField) {
			continue
		}
		if len(data) > 0 {
			file = &filePart{filename: part.FileName(), data: data}
		}
	}
	return form, file, nil
}

// headerValue does a case-insensitive header lookup; clients are not
// consistent about header casing.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
