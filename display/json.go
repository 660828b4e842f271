// Package display holds output helpers shared by the pantry commands.
package display

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/pantry/errors"
)

// OutputEnv selects JSON output for commands that support it when set to "json"
const OutputEnv = "PANTRY_OUTPUT"

// ShouldOutputJSON reports whether cmd should print JSON. An explicit --json
// flag wins; otherwise PANTRY_OUTPUT decides.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool("json")
			return v
		}
	}
	return strings.EqualFold(os.Getenv(OutputEnv), "json")
}

// MarshalJSON pretty-prints v with a trailing newline
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal JSON")
	}
	return append(data, '\n'), nil
}

// WriteJSON writes v to w as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write JSON")
	}
	return nil
}
