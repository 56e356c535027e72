package forensicstore

import (
	"github.com/forensicanalysis/forensicstore/internal/jsonlite"
)

// ProcessItem is a STIX 2.0-flavored Process Object, extended with
// forensicstore's non-STIX artifact/output fields.
type ProcessItem struct {
	Artifact    string
	Name        string
	Created     interface{} // time.Time or pre-formatted string
	Cwd         string
	Arguments   []string
	CommandLine string
	ReturnCode  int
	Errors      []string
}

// AddProcessItem inserts a new process record and returns its uid.
func (fs *ForensicStore) AddProcessItem(item ProcessItem) (string, error) {
	record := jsonlite.Record{
		"artifact":     item.Artifact,
		"type":         "process",
		"name":         item.Name,
		"created":      timeField(item.Created),
		"cwd":          item.Cwd,
		"arguments":    toInterfaceSlice(item.Arguments),
		"command_line": item.CommandLine,
		"return_code":  item.ReturnCode,
		"errors":       toInterfaceSlice(item.Errors),
	}
	return fs.Insert(record)
}

// AddProcessStdout opens a writer for the stdout output of the process at
// uid; write is called once with the writer and must not retain it past
// return.
func (fs *ForensicStore) AddProcessStdout(uid string, write func(*jsonlite.HashedWriter) error) error {
	item, err := fs.Get(uid)
	if err != nil {
		return err
	}
	return fs.addFileField(uid, item, "process", "stdout", "stdout_path", false, false, write)
}

// AddProcessStderr opens a writer for the stderr output of the process at
// uid.
func (fs *ForensicStore) AddProcessStderr(uid string, write func(*jsonlite.HashedWriter) error) error {
	item, err := fs.Get(uid)
	if err != nil {
		return err
	}
	return fs.addFileField(uid, item, "process", "stderr", "stderr_path", false, false, write)
}

// AddProcessWMI opens a writer for the WMI output of the process at uid.
func (fs *ForensicStore) AddProcessWMI(uid string, write func(*jsonlite.HashedWriter) error) error {
	item, err := fs.Get(uid)
	if err != nil {
		return err
	}
	return fs.addFileField(uid, item, "process", "wmi", "wmi_path", false, false, write)
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
