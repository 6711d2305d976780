package common

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"resumescore/internal/errors"
	"resumescore/internal/types"

	"github.com/go-playground/validator/v10"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateAnalysisType accepts the empty string as standard.
func ValidateAnalysisType(analysisType string) error {
	switch analysisType {
	case "", types.AnalysisTypeStandard, types.AnalysisTypeDetailed:
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unsupported analysis type '%s' (must be '%s' or '%s')",
			analysisType, types.AnalysisTypeStandard, types.AnalysisTypeDetailed), nil)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest checks struct tags on a request and reports every
// failing field in one validation error.
func ValidateRequest(req any) error {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid request", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, strings.Join(msgs, "; "), err)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ValidateDocumentLength rejects documents longer than maxChars runes.
// A non-positive limit disables the check.
func ValidateDocumentLength(text string, maxChars int) error {
	if maxChars <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(text); n > maxChars {
		return errors.NewValidationError(errors.ErrCodeDocumentTooLarge,
			fmt.Sprintf("document has %d characters, the limit is %d", n, maxChars), nil).
			WithContext("length", n).
			WithContext("limit", maxChars)
	}
	return nil
}
