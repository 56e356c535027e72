package forensicstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forensicanalysis/forensicstore/internal/config"
	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// envelope is the on-disk shape of an interchange document, per spec.md
// §6: container metadata alongside an "objects" map keyed by sequential
// integers in all()'s enumeration order.
type envelope struct {
	Metadata
	Objects map[string]jsonlite.Record `json:"objects"`
}

// ExportInterchange writes a JSON envelope containing the container's
// metadata and every record, keyed by sequential enumeration order, to w.
func (fs_ *ForensicStore) ExportInterchange(w io.Writer) error {
	cur, err := fs_.All()
	if err != nil {
		return err
	}
	defer cur.Close()

	objects := map[string]jsonlite.Record{}
	i := 0
	for cur.Next() {
		record, err := cur.Record()
		if err != nil {
			return err
		}
		objects[strconv.Itoa(i)] = record
		i++
	}
	if err := cur.Err(); err != nil {
		return err
	}

	env := envelope{Metadata: fs_.Metadata, Objects: objects}
	encoded, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("forensicstore: encode interchange envelope: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("forensicstore: write interchange envelope: %w", err)
	}
	return nil
}

// ImportInterchange reads a JSON envelope from envelopePath, adopts its
// metadata, and imports every object. Payload paths inside each object are
// resolved relative to envelopePath's own directory (the envelope's
// "backing filesystem") and copied through the local Content Store, so
// name collisions are resolved exactly as they would be for any other
// insert.
func (fs_ *ForensicStore) ImportInterchange(envelopePath string) error {
	raw, err := os.ReadFile(envelopePath)
	if err != nil {
		return fmt.Errorf("forensicstore: read interchange envelope: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("forensicstore: decode interchange envelope: %w", err)
	}
	fs_.Metadata = env.Metadata

	sourceDir := filepath.Dir(envelopePath)
	for _, record := range env.Objects {
		if err := fs_.importRecord(record, sourceDir); err != nil {
			return err
		}
	}
	return nil
}

// ImportContainer opens sourceRoot as another forensicstore container,
// enumerates its records, and re-inserts each one into fs_ after copying
// every *_path payload through the local Content Store. The source is
// opened read-only: ImportContainer only ever reads from it.
func (fs_ *ForensicStore) ImportContainer(sourceRoot string) error {
	source, err := OpenReadOnly(sourceRoot, config.Default().Container, fs_.log)
	if err != nil {
		return err
	}
	defer source.Close()

	cur, err := source.All()
	if err != nil {
		return err
	}
	defer cur.Close()

	for cur.Next() {
		record, err := cur.Record()
		if err != nil {
			return err
		}
		if err := fs_.importRecord(record, sourceRoot); err != nil {
			return err
		}
	}
	return cur.Err()
}

// importRecord copies every *_path payload of record from sourceDir
// through fs_'s local Content Store, rewrites those fields to the
// resulting (possibly suffixed) paths, and inserts the record.
func (fs_ *ForensicStore) importRecord(record jsonlite.Record, sourceDir string) error {
	copied := make(jsonlite.Record, len(record))
	for k, v := range record {
		copied[k] = v
	}

	for key, value := range record {
		if !strings.HasSuffix(key, "_path") {
			continue
		}
		relPath, ok := value.(string)
		if !ok || relPath == "" {
			continue
		}

		src, err := os.Open(filepath.Join(sourceDir, relPath))
		if err != nil {
			return fmt.Errorf("forensicstore: open payload %s: %w", relPath, err)
		}

		newPath, writer, err := fs_.StoreFile(relPath)
		if err != nil {
			src.Close()
			return err
		}
		_, copyErr := io.Copy(writer, src)
		src.Close()
		closeErr := writer.Close()
		if copyErr != nil {
			return fmt.Errorf("forensicstore: copy payload %s: %w", relPath, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("forensicstore: close payload %s: %w", relPath, closeErr)
		}
		copied[key] = newPath
	}

	_, err := fs_.Insert(copied)
	return err
}
