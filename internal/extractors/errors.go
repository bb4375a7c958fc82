package extractors

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// LoginRequiredError means the mirror answered with its sign-in gate.
type LoginRequiredError struct {
	Origin string
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("login is required to access %s", e.Origin)
}

// MirrorBannedError means the page lacks the wrapper every valid page has,
// which is what a blocked mirror serves.
type MirrorBannedError struct {
	Origin string
}

func (e *MirrorBannedError) Error() string {
	return fmt.Sprintf("mirror %s is banned or unavailable", e.Origin)
}

// NullError means a required extraction step found no value.
type NullError struct {
	Function string
	File     string
	Line     int
}

func (e *NullError) Error() string {
	return fmt.Sprintf("no value extracted in %s (%s:%d)", e.Function, e.File, e.Line)
}

// ParseJSONError means an embedded JSON payload lacked a parameter or was malformed.
type ParseJSONError struct {
	Param    string
	Function string
}

func (e *ParseJSONError) Error() string {
	return fmt.Sprintf("failed to parse json parameter %q in %s", e.Param, e.Function)
}

// RequestFailedError is an ajax answer with success set to false.
type RequestFailedError struct {
	Message string
}

func (e *RequestFailedError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return "request failed: " + e.Message
}

// Reporter receives every NullError before it is returned.
type Reporter interface {
	Report(err error)
}

type ReporterFunc func(err error)

func (f ReporterFunc) Report(err error) {
	f(err)
}

type slogReporter struct{}

func (slogReporter) Report(err error) {
	slog.Warn("Extraction step failed", "error", err)
}

// callerName returns the short name of the function skip frames above its caller.
func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return funcName(pc)
}

func funcName(pc uintptr) string {
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// null builds and reports a NullError located skip frames above its caller.
func (x *Extractor) null(skip int) *NullError {
	err := &NullError{Function: "unknown"}
	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		err.Function = funcName(pc)
		err.File = filepath.Base(file)
		err.Line = line
	}
	x.reporter().Report(err)
	return err
}

func (x *Extractor) reporter() Reporter {
	if x.Reporter == nil {
		return slogReporter{}
	}
	return x.Reporter
}
