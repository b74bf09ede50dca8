// Package filestore keeps a copy of each post's artwork on disk so it can be
// served statically without touching the database.
package filestore

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

type Store struct {
	fs   afero.Fs
	root string
}

func New(fs afero.Fs, root string) (*Store, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir(%s): %w", root, err)
	}
	return &Store{
		fs:   fs,
		root: root,
	}, nil
}

func NewOS(root string) (*Store, error) {
	return New(afero.NewOsFs(), root)
}

func FileName(postID uuid.UUID) string {
	return fmt.Sprintf("post_%s.jpg", postID.String())
}

func (s *Store) Path(postID uuid.UUID) string {
	return filepath.Join(s.root, FileName(postID))
}

// Save writes data to post_<id>.jpg. The file appears atomically: readers see
// either the previous file or the complete new one.
func (s *Store) Save(postID uuid.UUID, data []byte) (string, error) {
	tmp, err := afero.TempFile(s.fs, s.root, FileName(postID)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", err
	}

	path := s.Path(postID)
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return "", err
	}

	return path, nil
}

func (s *Store) Read(postID uuid.UUID) ([]byte, error) {
	return afero.ReadFile(s.fs, s.Path(postID))
}

// Remove deletes the post's file. A missing file is not an error.
func (s *Store) Remove(postID uuid.UUID) error {
	err := s.fs.Remove(s.Path(postID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(s.root)
}
