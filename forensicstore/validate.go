package forensicstore

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// Validate runs the whole-container validation pass described in
// spec.md §4.5: every record is required to carry its discriminator and
// pass its schema, every *_path field must resolve to an existing file
// under the container root whose size and hashes (when given) match, and
// the file tree must contain no files the index doesn't account for
// (besides the index file itself). Each problem found is built as a
// jsonlite.IntegrityError and rendered to its string form; the returned
// slice is the accumulated rendering, an empty slice meaning the
// container is valid. Unlike every other jsonlite/forensicstore
// operation, Validate never stops at the first problem.
func (fs_ *ForensicStore) Validate(root string) ([]string, error) {
	var problems []string
	expected := map[string]bool{"item.db": true}

	cur, err := fs_.All()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	// Records are read in full before validating any of them: schema
	// validation queries the index, which has a single connection that an
	// open cursor would keep busy.
	var records []jsonlite.Record
	for cur.Next() {
		record, err := cur.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, record := range records {
		recordProblems, recordExpected := fs_.validateRecord(record)
		problems = append(problems, recordProblems...)
		for _, p := range recordExpected {
			expected[p] = true
		}
	}

	fileProblems, err := compareFileTree(root, expected)
	if err != nil {
		return nil, err
	}
	problems = append(problems, fileProblems...)

	return problems, nil
}

func (fs_ *ForensicStore) validateRecord(record jsonlite.Record) (problems []string, expectedPaths []string) {
	typeVal, _ := record["type"].(string)
	if typeVal == "" {
		problems = append(problems, jsonlite.NewIntegrityError("record is missing its discriminator field"))
		return problems, nil
	}

	causes, err := fs_.index_validate(record, typeVal)
	if err != nil {
		problems = append(problems, jsonlite.NewIntegrityError(err.Error()))
	}
	for _, cause := range causes {
		problems = append(problems, jsonlite.NewIntegrityError(cause))
	}

	for key, value := range record {
		if !strings.HasSuffix(key, "_path") {
			continue
		}
		relPath, ok := value.(string)
		if !ok {
			continue
		}
		if strings.Contains(relPath, "..") {
			problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("'..' in %s", relPath)))
			continue
		}
		expectedPaths = append(expectedPaths, relPath)

		// Existence is confirmed here only to gate the size/hash checks
		// below; the grouped "missing files" problem itself is emitted
		// once, by compareFileTree, after every record has contributed
		// to the expected set.
		if !fs_.index.Content.Exists(relPath) {
			continue
		}

		if sizeField, ok := record["size"]; ok {
			actual, err := fs_.index.Content.Size(relPath)
			if err == nil && !sizeEquals(sizeField, actual) {
				problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("wrong size for %s", relPath)))
			}
		}

		if hashes, ok := record["hashes"].(jsonlite.Record); ok {
			for alg, want := range hashes {
				wantStr, _ := want.(string)
				if alg != "MD5" && alg != "SHA-1" {
					problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("unsupported hash algorithm %s for %s", alg, relPath)))
					continue
				}
				digest, err := fs_.index.Content.Digest(relPath, alg)
				if err == nil && digest != wantStr {
					problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("hashvalue mismatch %s for %s", alg, relPath)))
				}
			}
		}
	}

	return problems, expectedPaths
}

// index_validate exposes the schema-registry validation used during the
// pass, independent of strict mode (validate always checks every record).
func (fs_ *ForensicStore) index_validate(record jsonlite.Record, typeVal string) ([]string, error) {
	return fs_.index.Schemas.Validate(record, typeVal)
}

func sizeEquals(sizeField interface{}, actual int64) bool {
	switch n := sizeField.(type) {
	case int64:
		return n == actual
	case int:
		return int64(n) == actual
	case float64:
		return int64(n) == actual
	default:
		return true
	}
}

func formatGroup(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = "'" + p + "'"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// compareFileTree walks root and reports any file present on disk that
// is not in expected ("additional files"), and any expected file absent
// from disk ("missing files"). This is the only place missing files are
// reported; validateRecord merely skips the size/hash checks for them.
func compareFileTree(root string, expected map[string]bool) ([]string, error) {
	found := map[string]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isIndexSidecar(rel) {
			return nil
		}
		found[rel] = true
		return nil
	})
	if err != nil {
		return nil, wrapBackendErr(err)
	}

	var missing, additional []string
	for p := range expected {
		if !found[p] {
			missing = append(missing, "/"+p)
		}
	}
	for p := range found {
		if !expected[p] {
			additional = append(additional, "/"+p)
		}
	}
	sort.Strings(missing)
	sort.Strings(additional)

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("missing files: %s", formatGroup(missing))))
	}
	if len(additional) > 0 {
		problems = append(problems, jsonlite.NewIntegrityError(fmt.Sprintf("additional files: %s", formatGroup(additional))))
	}
	return problems, nil
}

func isIndexSidecar(rel string) bool {
	return strings.HasPrefix(rel, jsonlite.IndexFileName+"-") // -journal, -wal, -shm
}

func wrapBackendErr(err error) error {
	return fmt.Errorf("forensicstore: walk container: %w", err)
}
