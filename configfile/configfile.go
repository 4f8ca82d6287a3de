// Package configfile reads and writes detector configurations on disk and
// keeps a detector in sync with a configuration file that changes while the
// process runs.
package configfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipshipyard/phishing-detect/detector"
)

var log = logging.Logger("phishing-detect/configfile")

// Load reads and validates the configuration at path.
func Load(path string) (detector.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in, err := detector.ParseInput(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Encode writes in as JSON indented with two spaces and followed by a
// newline, the layout of hand-maintained configuration files.
func Encode(w io.Writer, in detector.Input) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Save validates in and replaces the file at path with its encoding. The
// file is written next to path and renamed into place so a watcher never
// reads a partial configuration.
func Save(path string, in detector.Input) error {
	if err := detector.ValidateInput(in); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	log.Debugf("saved configuration to %s", path)
	return nil
}
