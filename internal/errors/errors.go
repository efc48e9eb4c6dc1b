// Package errors maps SDK failures to albisctl exit codes.
package errors

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-albis-sdk/albiserr"
)

var (
	ErrUsage         = errors.New("usage error")
	ErrUnknownLookup = errors.New("unknown lookup")
)

const (
	ExitOK = iota
	ExitFailure
	ExitUsage
	ExitCredential
	ExitConfig
	ExitRemote
	ExitTransport
	ExitProtocol
)

// Usagef returns an ErrUsage with context.
func Usagef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUsage)...)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrUnknownLookup) {
		return ExitUsage
	}
	switch albiserr.KindOf(err) {
	case albiserr.KindCredential:
		return ExitCredential
	case albiserr.KindConfig:
		return ExitConfig
	case albiserr.KindRemote:
		return ExitRemote
	case albiserr.KindTransport:
		return ExitTransport
	case albiserr.KindProtocol, albiserr.KindFormat:
		return ExitProtocol
	}
	return ExitFailure
}
