package pipeline

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cellcluster/pkg/errors"
)

const configHeader = `# cellcluster analysis options
#
# cell1, cell2     population type codes; equal codes analyze one population
# layer_num        number of layers labeled in the input (ignored with ignore_layers)
# exclude_dist     seeds must be farther than this from every ROI edge
# analysis_dist    largest distance binned, inclusive
# interval_num     number of bins across analysis_dist
# sim_run_num      randomized layouts averaged into the baseline
# seed             fixes the random layouts; 0 picks a new seed each run
# workers          concurrent simulation runs; 0 uses every CPU
# formats          any of xlsx, tsv, json, svg, png

`

// LoadOptions reads an analysis file. Keys missing from the file keep their
// [DefaultOptions] values; unknown keys are rejected so a typo does not
// silently fall back to a default.
func LoadOptions(path string) (Options, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Options{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return Options{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseOptions(string(data))
}

// ParseOptions decodes TOML analysis options on top of the defaults.
func ParseOptions(data string) (Options, error) {
	opts := DefaultOptions()
	md, err := toml.Decode(data, &opts)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidParameter, err, "decode options")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Options{}, errors.New(errors.ErrCodeInvalidParameter,
			"unknown option(s): %s", strings.Join(keys, ", "))
	}
	return opts, nil
}

// WriteOptions writes opts as a commented analysis file.
func WriteOptions(w io.Writer, opts Options) error {
	if _, err := io.WriteString(w, configHeader); err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(opts); err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return nil
}
