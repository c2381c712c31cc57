package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"hirescore/internal/errors"
	"hirescore/internal/utils"
)

// FileProcessor reads input documents and writes command output. Documents
// are plain UTF-8 text; binary formats are refused before extraction.
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a file processor. maxSize bounds every input file;
// zero applies utils.DefaultMaxFileSize.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if maxSize <= 0 {
		maxSize = utils.DefaultMaxFileSize
	}
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// MaxSize returns the input size limit in bytes
func (fp *FileProcessor) MaxSize() int64 { return fp.maxSize }

// ReadDocument validates filename and returns its text with line endings normalized
func (fp *FileProcessor) ReadDocument(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if !utils.IsTextFile(filename) {
		fp.logger.Debug("Reading document without a known text extension", "filename", filename)
	}

	content, err := fp.read(filename)
	if err != nil {
		return "", err
	}

	if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
		return "", errors.NewValidationError("BINARY_INPUT_FILE",
			fmt.Sprintf("%s is not a UTF-8 text document; convert it to text first", filename), nil)
	}

	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return string(content), nil
}

func (fp *FileProcessor) read(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	// the file may grow between the stat and the read
	content, err := io.ReadAll(io.LimitReader(file, fp.maxSize+1))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if int64(len(content)) > fp.maxSize {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("%s exceeds the %s limit", filename, utils.FormatFileSize(fp.maxSize)), nil)
	}
	return content, nil
}

// WriteFile writes content, creating the parent directory when needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks an output path; empty means stdout
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
