package forensicstore

import (
	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// DirectoryItem is a STIX 2.0-flavored Directory Object.
type DirectoryItem struct {
	Artifact string
	Path     string
	Created  interface{}
	Modified interface{}
	Accessed interface{}
	Errors   []string
}

// AddDirectoryItem inserts a new directory record and returns its uid.
func (fs *ForensicStore) AddDirectoryItem(item DirectoryItem) (string, error) {
	record := jsonlite.Record{
		"artifact": item.Artifact,
		"path":     item.Path,
		"type":     "directory",
		"created":  timeField(item.Created),
		"modified": timeField(item.Modified),
		"accessed": timeField(item.Accessed),
		"errors":   toInterfaceSlice(item.Errors),
	}
	return fs.Insert(record)
}
