package commands

import (
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/teenjuna/idxsparse"
)

// splitFlags selects the archives a command works on.
type splitFlags struct {
	Dir      string `cli:"name=dir desc='directory holding the archives' default=."`
	Images   string `cli:"name=images desc='images archive, used instead of -dir with -labels'"`
	Labels   string `cli:"name=labels desc='labels archive, used instead of -dir with -images'"`
	Train    bool   `cli:"name=train desc='use the train split instead of t10k'"`
	All      bool   `cli:"name=all desc='use both the t10k and the train split'"`
	Checksum bool   `cli:"name=checksum desc='check archives against the published SHA-256 digests'"`
	Verbose  bool   `cli:"name=v aliases=verbose desc='log every batch'"`
}

var outputExt = map[string]string{
	"json": ".jsonl",
	"msgp": ".msgp",
}

// splits resolves the flags to splits whose output is out, or the conventional name for format
// if out is empty.
func (f *splitFlags) splits(out, format string) ([]idxsparse.Split, error) {
	var splits []idxsparse.Split

	switch {
	case f.Images != "" || f.Labels != "":
		if f.Images == "" || f.Labels == "" {
			return nil, fmt.Errorf("%w: -images and -labels go together", cli.ErrUsage)
		}
		if f.All || f.Train {
			return nil, fmt.Errorf("%w: -images and -labels can't be used with -all or -train", cli.ErrUsage)
		}
		if out == "" {
			return nil, fmt.Errorf("%w: -images and -labels need -o", cli.ErrUsage)
		}
		splits = append(splits, idxsparse.Split{
			Name:   "custom",
			Images: f.Images,
			Labels: f.Labels,
		})
	case f.All:
		splits = append(splits, idxsparse.TestSplit(f.Dir), idxsparse.TrainSplit(f.Dir))
	case f.Train:
		splits = append(splits, idxsparse.TrainSplit(f.Dir))
	default:
		splits = append(splits, idxsparse.TestSplit(f.Dir))
	}

	if out != "" {
		if len(splits) > 1 {
			return nil, fmt.Errorf("%w: -o needs a single split", cli.ErrUsage)
		}
		splits[0].Output = out
	} else if ext, ok := outputExt[format]; ok {
		for i := range splits {
			splits[i].Output = strings.TrimSuffix(splits[i].Output, ".txt") + ext
		}
	}

	var missing []string
	for _, split := range splits {
		missing = append(missing, split.Missing()...)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"missing %s; the archives can be downloaded from %s",
			strings.Join(missing, ", "), idxsparse.DownloadURL,
		)
	}

	return splits, nil
}
