package common

import "fmt"

// MetafileParseError reports a malformed literal in a directory metafile.
// The metafile's contribution is skipped for the run; the batch continues.
type MetafileParseError struct {
	File    string
	Line    int
	Message string
}

func (e *MetafileParseError) Error() string {
	return fmt.Sprintf("metafile %s:%d: %s", e.File, e.Line, e.Message)
}

// FilenameDecodeError reports a recognized filename token whose body does not
// match its grammar. It fails the single image, not the run.
type FilenameDecodeError struct {
	Token   string
	Grammar string
	Message string
}

func (e *FilenameDecodeError) Error() string {
	return fmt.Sprintf("filename token %q does not match %s: %s", e.Token, e.Grammar, e.Message)
}

// UnresolvedMandatoryTag reports a tag still marked MANDATORY at finalization.
type UnresolvedMandatoryTag struct {
	Tag string
}

func (e *UnresolvedMandatoryTag) Error() string {
	return fmt.Sprintf("mandatory tag %q was never assigned a value", e.Tag)
}

// UnresolvedAutoTag reports an AUTO tag no autofill rule could fill.
type UnresolvedAutoTag struct {
	Tag string
}

func (e *UnresolvedAutoTag) Error() string {
	return fmt.Sprintf("auto tag %q could not be filled", e.Tag)
}

// UnknownTemplateTag reports an output-path placeholder with no resolved value.
type UnknownTemplateTag struct {
	Tag string
}

func (e *UnknownTemplateTag) Error() string {
	return fmt.Sprintf("output template references unresolved tag %q", e.Tag)
}

// GeometryDetectionFailure reports a detected crop region failing the
// divisibility check.
type GeometryDetectionFailure struct {
	File     string
	Width    int
	Height   int
	Multiple int
}

func (e *GeometryDetectionFailure) Error() string {
	return fmt.Sprintf("%s: detected region %dx%d is not a multiple of %d",
		e.File, e.Width, e.Height, e.Multiple)
}

// ExternalToolFailure reports a non-zero exit from the metadata tool.
type ExternalToolFailure struct {
	File string
	Err  error
}

func (e *ExternalToolFailure) Error() string {
	return fmt.Sprintf("metadata tool failed for %s: %v", e.File, e.Err)
}

func (e *ExternalToolFailure) Unwrap() error { return e.Err }
