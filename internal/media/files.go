package media

import (
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	ImageDir = "images/properties"
	VideoDir = "videos/properties"
)

// SaveUpload writes one uploaded file under baseDir/subDir and returns the
// web path ("/images/properties/<name>") to persist on the document. The
// generated name embeds the field name, a timestamp, and a random suffix so
// concurrent uploads never collide.
func SaveUpload(baseDir, subDir, field string, fh *multipart.FileHeader) (string, error) {
	name := uploadFilename(field, fh.Filename)
	dir := filepath.Join(baseDir, filepath.FromSlash(subDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "error creating upload directory: %s", dir)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrapf(err, "error opening uploaded file: %s", fh.Filename)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "error creating upload file: %s", name)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrapf(err, "error writing upload file: %s", name)
	}

	return "/" + path.Join(subDir, name), nil
}

// RemoveUpload deletes a previously saved upload given its web path.
// Best-effort cleanup: a missing file is not an error.
func RemoveUpload(baseDir, webPath string) error {
	rel := strings.TrimPrefix(path.Clean("/"+webPath), "/")
	if rel == "" || rel == "." {
		return nil
	}
	err := os.Remove(filepath.Join(baseDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "error removing upload: %s", webPath)
	}
	return nil
}

func uploadFilename(field, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return field + "-" + time.Now().UTC().Format("20060102150405") + "-" + suffix + ext
}
