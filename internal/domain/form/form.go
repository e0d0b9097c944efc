// Package form decodes the multipart body accepted by the note creation
// endpoint into a name and a text field.
package form

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

const mediaType = "multipart/form-data"

// Field names recognised on the creation form. Anything else falls back to
// positional assignment: first part is the name, second is the text.
var (
	nameFields = map[string]bool{"note_name": true, "name": true}
	textFields = map[string]bool{"note": true, "text": true}
)

// Note is a decoded creation request.
type Note struct {
	Name string
	Text string
}

type part struct {
	field string
	value string
}

// Parse reads a multipart/form-data body holding exactly two parts. Values
// are trimmed of surrounding whitespace. Every failure is a *DecodeError.
func Parse(contentType string, body io.Reader) (Note, error) {
	boundary, err := boundaryOf(contentType)
	if err != nil {
		return Note{}, err
	}

	parts, err := readParts(multipart.NewReader(body, boundary))
	if err != nil {
		return Note{}, err
	}

	note := assign(parts)
	if note.Name == "" {
		return Note{}, decodeErr(ErrEmptyName, nil)
	}
	return note, nil
}

func boundaryOf(contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		return "", decodeErr(ErrMissingBoundary, errors.New("no content type"))
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", decodeErr(ErrMissingBoundary, err)
	}
	if mt != mediaType {
		return "", decodeErr(ErrMissingBoundary, errors.New("content type is "+mt))
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", decodeErr(ErrMissingBoundary, nil)
	}
	return boundary, nil
}

func readParts(r *multipart.Reader) ([]part, error) {
	var parts []part
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, decodeErr(ErrMalformedPart, err)
		}
		if len(parts) == 2 {
			_ = p.Close()
			return nil, decodeErr(ErrFieldCount, nil)
		}
		value, err := io.ReadAll(p)
		_ = p.Close()
		if err != nil {
			return nil, decodeErr(ErrMalformedPart, err)
		}
		parts = append(parts, part{field: p.FormName(), value: strings.TrimSpace(string(value))})
	}
	if len(parts) != 2 {
		return nil, decodeErr(ErrFieldCount, nil)
	}
	return parts, nil
}

func assign(parts []part) Note {
	first, second := parts[0], parts[1]
	switch {
	case nameFields[first.field] && textFields[second.field]:
		return Note{Name: first.value, Text: second.value}
	case textFields[first.field] && nameFields[second.field]:
		return Note{Name: second.value, Text: first.value}
	default:
		return Note{Name: first.value, Text: second.value}
	}
}
