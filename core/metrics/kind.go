package metrics

import (
	"errors"

	"github.com/siherrmann/inscriber/helper"
)

// FailureKind maps an error to a short label value.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, helper.ErrManifestSchema):
		return "manifest_schema"
	case errors.Is(err, helper.ErrManifestUnavailable):
		return "manifest_unavailable"
	case errors.Is(err, helper.ErrImageUnavailable):
		return "image_unavailable"
	case errors.Is(err, helper.ErrOcrFailure):
		return "ocr_failure"
	case errors.Is(err, helper.ErrNlpFailure):
		return "nlp_failure"
	case errors.Is(err, helper.ErrExportIO):
		return "export_io"
	case errors.Is(err, helper.ErrOutputDir):
		return "output_dir"
	}
	return "other"
}
