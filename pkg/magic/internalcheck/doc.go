// Package internalcheck holds policy tests for the go-magic packages.
//
// The checks load the module with golang.org/x/tools/go/packages and walk
// the syntax trees. They assert that cgo stays confined to the backend
// package and that library code never writes to the process's standard
// streams.
//
// This package is not intended for import.
package internalcheck
