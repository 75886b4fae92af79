// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A MimeField is a single field of a multipart/form-data request body,
// added via Request.AddMimeField.
//
// A MimeField is either a plain value field or a file field, decided by
// whether FilePath is set. When FilePath is set, the field is sent as
// an uploaded file attachment; otherwise Value is sent as the field's
// content.
type MimeField struct {
	// Name is the form field name.
	Name string

	// Value is the field content for a plain value field. Ignored if
	// FilePath is set.
	Value string

	// FilePath, if non-empty, marks this as a file field and names the
	// file on disk to upload as the field's content.
	FilePath string

	// FileName overrides the filename reported in the multipart
	// Content-Disposition header for a file field. If empty, the base
	// name of FilePath is used.
	FileName string

	// ContentType overrides the Content-Type reported for this field.
	// If empty, a file field is sent as application/octet-stream (its
	// content is not sniffed) and a value field is sent without a
	// Content-Type header, which multipart/form-data treats as
	// text/plain.
	ContentType string
}

// NewMimeField constructs a plain value mime field.
func NewMimeField(name, value string) MimeField {
	return MimeField{Name: name, Value: value}
}

// NewMimeFieldFile constructs a file mime field which will upload the
// contents of the file at path.
func NewMimeFieldFile(name, path string) MimeField {
	return MimeField{Name: name, FilePath: path}
}

// IsFile reports whether this field uploads a file, as opposed to a
// plain value.
func (f MimeField) IsFile() bool {
	return f.FilePath != ""
}
