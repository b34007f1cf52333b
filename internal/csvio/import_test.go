package csvio

import (
	"context"
	"strings"
	"testing"
)

// These cases fail before any store access, so a nil Store is safe.

func TestImportMissingHeader(t *testing.T) {
	err := Import(context.Background(), nil, strings.NewReader(""))
	cerr, ok := err.(*Error)
	if !ok || cerr.Cause != CauseMissingHeader {
		t.Fatalf("err = %v, want CauseMissingHeader", err)
	}
}

func TestImportBadHeaderFirstColumn(t *testing.T) {
	err := Import(context.Background(), nil, strings.NewReader("Timestamp,1\n"))
	cerr, ok := err.(*Error)
	if !ok || cerr.Cause != CauseBadHeader {
		t.Fatalf("err = %v, want CauseBadHeader", err)
	}
}

func TestImportBadHeaderNonNumericID(t *testing.T) {
	err := Import(context.Background(), nil, strings.NewReader("Datetime,abc\n"))
	cerr, ok := err.(*Error)
	if !ok || cerr.Cause != CauseBadHeader {
		t.Fatalf("err = %v, want CauseBadHeader", err)
	}
}
