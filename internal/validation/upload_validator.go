package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// allowedExtensions are the dataset formats the loader understands.
// Legacy .xls is excluded: excelize only reads OOXML workbooks, so
// accepting it would just defer the failure to the parse step.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// UploadValidator checks uploaded dataset files before they reach the
// loader. It only inspects metadata (name, size); content validation is
// the loader's job.
type UploadValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewUploadValidator creates a validator with the given size limit.
func NewUploadValidator(logger *slog.Logger, maxBytes int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured upload size limit.
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the file name and declared size of an upload.
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	if err := v.ValidateFilename(filename); err != nil {
		return err
	}

	if size <= 0 {
		v.logger.Warn("Rejected empty upload",
			slog.String("file", filename))
		return fmt.Errorf("file %s is empty", filename)
	}

	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Rejected oversized upload",
			slog.String("file", filename),
			slog.Int64("size", size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("file %s payload too large: %d bytes exceeds limit of %d", filename, size, v.maxBytes)
	}

	v.logger.Debug("Upload validated",
		slog.String("file", filename),
		slog.Int64("size", size))
	return nil
}

// ValidateFilename checks the extension and rejects Excel lock files.
func (v *UploadValidator) ValidateFilename(filename string) error {
	base := filepath.Base(filename)
	if base == "" || base == "." {
		return fmt.Errorf("upload has no file name")
	}

	// Excel leaves ~$ lock files next to open workbooks
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejected temporary Excel file",
			slog.String("file", base))
		return fmt.Errorf("file %s is a temporary Excel file", base)
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !allowedExtensions[ext] {
		v.logger.Warn("Rejected unsupported file type",
			slog.String("file", base),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported format %q: expected .csv or .xlsx", ext)
	}

	return nil
}
