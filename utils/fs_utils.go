package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CreateFile will create a file at the given path and file name combination. If the path is the empty string, the
// file will be created in the current working directory
func CreateFile(path string, fileName string) (*os.File, error) {
	filePath := fileName
	if path != "" {
		if err := MakeDirectory(path); err != nil {
			return nil, err
		}
		filePath = filepath.Join(path, fileName)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return file, nil
}

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist.
// Returns an error, if one occurred.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WithStack(os.MkdirAll(dirToMake, 0755))
		}
		return errors.WithStack(err)
	}

	// dirToMake is a file, throw an error accordingly
	if !dirInfo.IsDir() {
		return fmt.Errorf("there is a file with the same name as %s", dirToMake)
	}
	return nil
}

// ReadInput returns the contents of the file at path when the argument is prefixed with '@', and the argument itself
// otherwise. This lets commands accept either literal hex or a file containing it.
func ReadInput(arg string) (string, error) {
	if len(arg) == 0 || arg[0] != '@' {
		return arg, nil
	}
	b, err := os.ReadFile(arg[1:])
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}
