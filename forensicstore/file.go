package forensicstore

import (
	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// FileItem is a STIX 2.0-flavored File Object, extended with
// forensicstore's non-STIX artifact/origin fields.
type FileItem struct {
	Artifact string
	Name     string
	Created  interface{}
	Modified interface{}
	Accessed interface{}
	Origin   map[string]interface{}
	Errors   []string
}

// AddFileItem inserts a new file record and returns its uid.
func (fs *ForensicStore) AddFileItem(item FileItem) (string, error) {
	record := jsonlite.Record{
		"artifact": item.Artifact,
		"type":     "file",
		"name":     item.Name,
		"created":  timeField(item.Created),
		"modified": timeField(item.Modified),
		"accessed": timeField(item.Accessed),
		"errors":   toInterfaceSlice(item.Errors),
	}
	if item.Origin != nil {
		record["origin"] = jsonlite.Record(item.Origin)
	}
	return fs.Insert(record)
}

// AddFileExport opens a writer for the file's exported content. If
// exportName is empty, the item's own "name" field is used, mirroring
// pyforensicstore.add_file_item_export's default. Size and hashes are
// computed automatically from what is written.
func (fs *ForensicStore) AddFileExport(uid, exportName string, write func(*jsonlite.HashedWriter) error) error {
	item, err := fs.Get(uid)
	if err != nil {
		return err
	}
	if exportName == "" {
		exportName, _ = item["name"].(string)
	}
	return fs.addFileField(uid, item, "file", exportName, "export_path", true, true, write)
}
