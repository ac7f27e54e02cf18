package rest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File describes a file upload - for example a BPMN or DMN resource of a deployment.
type File struct {
	Name     string // Name of the form field.
	Contents []byte
	Filename string
}

func (f File) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string `json:"name"`
		Contents string `json:"contents"`
		Filename string `json:"filename"`
	}{
		Name:     f.Name,
		Contents: string(f.Contents),
		Filename: f.Filename,
	})
}

// Files is an ordered collection of file uploads.
// The insertion order determines the order of the multipart parts.
type Files struct {
	files []File
}

func NewFiles() *Files {
	return &Files{}
}

func (f *Files) Add(name string, contents []byte, filename string) *Files {
	f.files = append(f.files, File{Name: name, Contents: contents, Filename: filename})
	return f
}

// AddFile reads the file at path and adds it, using the base name as filename.
func (f *Files) AddFile(name string, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %v", path, err)
	}

	f.Add(name, b, filepath.Base(path))
	return nil
}

// All returns the files in insertion order.
func (f *Files) All() []File {
	if f == nil {
		return nil
	}
	files := make([]File, len(f.files))
	copy(files, f.files)
	return files
}

func (f *Files) Len() int {
	if f == nil {
		return 0
	}
	return len(f.files)
}

func (f *Files) flatten(_ string, b *body) error {
	for _, file := range f.files {
		if b.contentType == ContentTypeMultipart {
			b.parts = append(b.parts, Part{Name: file.Name, Contents: file.Contents, Filename: file.Filename})
		} else {
			b.params.Set(file.Name, file)
		}
	}
	return nil
}
