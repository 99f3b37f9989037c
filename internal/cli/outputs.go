package cli

import (
	"fmt"
	"io"
	"os"
)

// stepOutput is one name=value pair a workflow step exposes.
type stepOutput struct {
	name  string
	value string
}

type stepOutputs []stepOutput

// set replaces the value of an existing output or appends a new one.
func (o *stepOutputs) set(name, value string) {
	for i := range *o {
		if (*o)[i].name == name {
			(*o)[i].value = value
			return
		}
	}
	*o = append(*o, stepOutput{name, value})
}

// writeStepOutputs appends outputs to the $GITHUB_OUTPUT file at path. With
// no path they are printed to w instead. Values are single line, so the
// plain name=value form is enough.
func writeStepOutputs(w io.Writer, path string, outputs stepOutputs) error {
	if path == "" {
		for _, o := range outputs {
			fmt.Fprintf(w, "%s=%s\n", o.name, o.value)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step output file: %w", err)
	}
	for _, o := range outputs {
		if _, err := fmt.Fprintf(f, "%s=%s\n", o.name, o.value); err != nil {
			f.Close()
			return fmt.Errorf("writing step output %s: %w", o.name, err)
		}
	}
	return f.Close()
}
