package utils

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalStorage writes uploads under Root and serves them from URLPrefix.
// Used when R2 is not configured (local development).
type LocalStorage struct {
	Root      string
	URLPrefix string
}

func NewLocalStorage(root, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{Root: root, URLPrefix: urlPrefix}, nil
}

// Put stores the file at key and returns its public path.
func (l *LocalStorage) Put(_ context.Context, fileHeader *multipart.FileHeader, key string) (string, error) {
	if err := SaveFile(fileHeader, filepath.Join(l.Root, filepath.FromSlash(key))); err != nil {
		return "", err
	}
	return l.URLPrefix + "/" + key, nil
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}
