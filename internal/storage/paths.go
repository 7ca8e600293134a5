package storage

import (
	"path"
	"strings"
)

const (
	// placeholderName marks an otherwise empty folder on backends that cannot
	// store directories. It never shows up in listings.
	placeholderName = ".gitkeep"

	defaultUploadName = "upload"
)

// cleanMediaPath normalizes a slash separated path relative to the media root.
// Surrounding and repeated slashes are dropped; dot segments, backslashes and
// NUL bytes are rejected.
func cleanMediaPath(p string) (string, error) {
	if strings.ContainsAny(p, "\\\x00") {
		return "", ErrInvalidPath
	}

	parts := make([]string, 0, strings.Count(p, "/")+1)
	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "":
			continue
		case ".", "..":
			return "", ErrInvalidPath
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "/"), nil
}

// mediaSrc builds the public URL path of an entry.
func mediaSrc(mediaRoot, folder, name string) string {
	return "/" + strings.TrimPrefix(path.Join(mediaRoot, folder, name), "/")
}

// uploadFilename reduces a client supplied filename to its base name.
func uploadFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return defaultUploadName
	}
	return name
}

// resolveUploadPath decides where an uploaded file lands. The destination
// segments name a folder, unless their last segment already is the uploaded
// filename, in which case they name the file.
func resolveUploadPath(destination, filename string) string {
	name := uploadFilename(filename)
	if destination == "" {
		return name
	}
	if path.Base(destination) == name {
		return destination
	}
	return destination + "/" + name
}

func joinRoot(root, p string) string {
	root = strings.Trim(root, "/")
	switch {
	case root == "":
		return p
	case p == "":
		return root
	}
	return root + "/" + p
}
