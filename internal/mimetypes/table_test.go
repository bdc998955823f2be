package mimetypes_test

import (
	"testing"

	"github.com/tyemirov/fsapi/internal/config"
	"github.com/tyemirov/fsapi/internal/mimetypes"
)

func TestTableLookup(t *testing.T) {
	table := mimetypes.NewTable([]config.MimetypeEntry{
		{Extension: "txt", Mimetype: "text/plain", Icon: "📄"},
		{Extension: "png", Mimetype: "image/png", Icon: "🖼"},
		{Extension: "txt", Mimetype: "text/x-override", Icon: "📝"},
	})

	testCases := []struct {
		name             string
		extension        string
		expectFound      bool
		expectedMimetype string
		expectedIcon     string
	}{
		{name: "RegisteredExtension", extension: "png", expectFound: true, expectedMimetype: "image/png", expectedIcon: "🖼"},
		{name: "LastDuplicateWins", extension: "txt", expectFound: true, expectedMimetype: "text/x-override", expectedIcon: "📝"},
		{name: "CaseSensitive", extension: "PNG", expectFound: false},
		{name: "Unregistered", extension: "bin", expectFound: false},
		{name: "Empty", extension: "", expectFound: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			entry, found := table.Lookup(testCase.extension)
			if found != testCase.expectFound {
				t.Fatalf("expected found=%v, got %v", testCase.expectFound, found)
			}
			if !found {
				return
			}
			if entry.Mimetype != testCase.expectedMimetype || entry.Icon != testCase.expectedIcon {
				t.Fatalf("unexpected entry %+v", entry)
			}
		})
	}
}

func TestDefaultsAreNeverEmpty(t *testing.T) {
	if mimetypes.DefaultFile() != "application/octet-stream" {
		t.Fatalf("unexpected default file mimetype %s", mimetypes.DefaultFile())
	}
	directoryDefault := mimetypes.DefaultDirectory()
	if directoryDefault.Mimetype != "application/directory" || directoryDefault.Icon != "📂" {
		t.Fatalf("unexpected default directory entry %+v", directoryDefault)
	}
}
