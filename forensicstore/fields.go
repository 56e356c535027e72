package forensicstore

import (
	"fmt"
	"path"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// addFileField opens a payload writer scoped to a single *_path field, runs
// write against it, and closes the writer on every return, including
// error. Only when both write and close succeed is the resulting path
// (and, if requested, size/hashes) stitched back into the record via
// Update; on error the record is left unchanged. This is the Go rendering of
// pyforensicstore._add_file_field's @contextmanager: a single guaranteed
// release path instead of a generator/yield.
func (fs *ForensicStore) addFileField(uid string, item jsonlite.Record, itemType, exportName, field string, withSize, withHash bool, write func(*jsonlite.HashedWriter) error) error {
	gotType, _ := item["type"].(string)
	if gotType != itemType {
		return typeMismatch(itemType, gotType)
	}

	artifact, _ := item["artifact"].(string)
	if artifact == "" {
		artifact = "."
	}

	newPath, writer, err := fs.StoreFile(path.Join(artifact, exportName))
	if err != nil {
		return err
	}

	writeErr := write(writer)
	closeErr := writer.Close()
	if writeErr != nil {
		return fmt.Errorf("forensicstore: write %s: %w", newPath, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("forensicstore: close %s: %w", newPath, closeErr)
	}

	update := jsonlite.Record{field: newPath}
	if withHash {
		hashes := writer.Hashes()
		update["hashes"] = jsonlite.Record{"MD5": hashes["MD5"], "SHA-1": hashes["SHA-1"]}
	}
	if withSize {
		update["size"] = writer.Size()
	}

	_, err = fs.Update(uid, update)
	return err
}
