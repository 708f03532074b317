package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CreateFile creates (or truncates) a file named fileName within directory, creating the directory if needed. If
// directory is the empty string, the file is created in the current working directory.
func CreateFile(directory string, fileName string) (*os.File, error) {
	filePath := fileName
	if directory != "" {
		if err := MakeDirectory(directory); err != nil {
			return nil, err
		}
		filePath = filepath.Join(directory, fileName)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist.
// Returns an error if the path refers to an existing file or the directory could not be created.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if os.IsNotExist(err) {
		return errors.WithStack(os.MkdirAll(dirToMake, 0755))
	} else if err != nil {
		return errors.WithStack(err)
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("could not create directory '%s' because a file with the same name exists", dirToMake)
	}
	return nil
}

// CopyFile copies a file from a source path to a target path, creating the target's parent directories. File
// permissions are retained.
func CopyFile(sourcePath string, targetPath string) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	if sourceInfo.IsDir() {
		return fmt.Errorf("could not copy file from '%s' to '%s' because the source path refers to a directory", sourcePath, targetPath)
	}

	if err = MakeDirectory(filepath.Dir(targetPath)); err != nil {
		return err
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	targetFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, sourceInfo.Mode())
	if err != nil {
		return err
	}
	defer targetFile.Close()

	_, err = io.Copy(targetFile, sourceFile)
	return err
}

// CopyDirectory recursively copies a directory tree from a source path to a target path.
func CopyDirectory(sourcePath string, targetPath string) error {
	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	if !sourceInfo.IsDir() {
		return fmt.Errorf("could not copy directory from '%s' to '%s' because the source path does not refer to a valid directory", sourcePath, targetPath)
	}

	return filepath.WalkDir(sourcePath, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relativePath, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(targetPath, relativePath)
		if entry.IsDir() {
			return MakeDirectory(target)
		}
		return CopyFile(path, target)
	})
}
