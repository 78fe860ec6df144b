package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CheckIfExistsAndIsRegular checks if a path exists and is a regular file.
func CheckIfExistsAndIsRegular(path string) (os.FileInfo, error) {
	statResult, statErr := os.Stat(path)
	if statErr != nil {
		return nil, statErr
	}
	if !statResult.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	return statResult, nil
}

// CheckIfExistsAndIsDirectory checks if a path exists and is a directory.
func CheckIfExistsAndIsDirectory(path string) (os.FileInfo, error) {
	statResult, statErr := os.Stat(path)
	if statErr != nil {
		return nil, statErr
	}
	if !statResult.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", path)
	}
	return statResult, nil
}

// MoveFile moves file from one location to another
// and creates intermediate directories.
// If the target file already exists, it will be truncated to size 0 first.
func MoveFile(source, target string) error {

	success := false

	sourceStat, err := os.Stat(source)
	if err != nil {
		return err
	}
	if !sourceStat.Mode().IsRegular() {
		return fmt.Errorf("source is not regular file")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	writableFile, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE, 0664)
	if err != nil {
		return err
	}
	defer func() {
		if err := writableFile.Close(); err != nil {
			fmt.Printf("failed closing writable file, reason: %+v", err)
		}
		if !success {
			// write failed, remove the file...
			if err := os.Remove(target); err != nil {
				fmt.Printf("failed removing target file on unsuccessful move, trash left, reason: %+v", err)
			}
		}
	}()

	if err := writableFile.Truncate(0); err != nil {
		return err
	}

	readableFile, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() {
		if err := readableFile.Close(); err != nil {
			fmt.Printf("failed closing readable file, reason: %+v", err)
		}
		if success {
			if err := os.Remove(source); err != nil {
				fmt.Printf("failed removing source file on successful move, trash left, reason: %+v", err)
			}
		}
	}()

	buf := make([]byte, 8*1024*1024)
	for {
		read, err := readableFile.Read(buf)
		if read == 0 && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("error reading source file, reason: %+v", err)
		}
		written, err := writableFile.Write(buf[0:read])
		if err != nil {
			return fmt.Errorf("error writing target file, reason: %+v", err)
		}
		if written != read {
			fmt.Println(fmt.Sprintf("warning, written '%d' vs read '%d' did not match", written, read))
		}
	}

	success = true

	return nil
}
