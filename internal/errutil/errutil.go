// Package errutil reads oops error codes and logs oops context.
package errutil

import (
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// Code returns the code of the deepest coded oops error in err's chain, or ""
// when err carries no code.
//
// Classify domain failures with Code rather than errors.Is: every oops error
// reports Is(target) == true for any other oops error.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasCode reports whether err carries one of codes.
func HasCode(err error, codes ...string) bool {
	code := Code(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// LogError logs err with its oops code and context when it has them.
func LogError(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	entry := logger.WithFields(fields).WithField("error", err.Error())
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			entry = entry.WithField("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			entry = entry.WithField("context", ctx)
		}
	}
	entry.Error(msg)
}
