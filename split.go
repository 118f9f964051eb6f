package idxsparse

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Conventional names of the MNIST distribution files and of the converted outputs.
const (
	TestImagesFile  = "t10k-images-idx3-ubyte.gz"
	TestLabelsFile  = "t10k-labels-idx1-ubyte.gz"
	TrainImagesFile = "train-images-idx3-ubyte.gz"
	TrainLabelsFile = "train-labels-idx1-ubyte.gz"

	TestOutputFile  = "MNIST-28x28-test.txt"
	TrainOutputFile = "MNIST-28x28-train.txt"

	// DownloadURL is where the distribution files are published.
	DownloadURL = "http://yann.lecun.com/exdb/mnist/"
)

// SHA-256 digests of the published archives.
const (
	TestImagesDigest  = "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"
	TestLabelsDigest  = "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"
	TrainImagesDigest = "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"
	TrainLabelsDigest = "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"
)

// Split is one pair of image and label archives converted into one output.
type Split struct {
	// Name identifies the split in logs, metrics and SQLite rows.
	Name string
	// Images is the path of the compressed IDX3 images archive.
	Images string
	// Labels is the path of the compressed IDX1 labels archive.
	Labels string
	// Output is the path file sinks write to.
	Output string
	// ImagesDigest and LabelsDigest are the expected hex SHA-256 digests of the archives. Empty
	// digests are not checked.
	ImagesDigest string
	LabelsDigest string
}

// TestSplit returns the t10k split with archives in dir and the output next to them.
func TestSplit(dir string) Split {
	return Split{
		Name:         "test",
		Images:       filepath.Join(dir, TestImagesFile),
		Labels:       filepath.Join(dir, TestLabelsFile),
		Output:       filepath.Join(dir, TestOutputFile),
		ImagesDigest: TestImagesDigest,
		LabelsDigest: TestLabelsDigest,
	}
}

// TrainSplit returns the train split with archives in dir and the output next to them.
func TrainSplit(dir string) Split {
	return Split{
		Name:         "train",
		Images:       filepath.Join(dir, TrainImagesFile),
		Labels:       filepath.Join(dir, TrainLabelsFile),
		Output:       filepath.Join(dir, TrainOutputFile),
		ImagesDigest: TrainImagesDigest,
		LabelsDigest: TrainLabelsDigest,
	}
}

// Missing returns the archives of the split that don't exist.
func (s Split) Missing() []string {
	var missing []string
	for _, path := range []string{s.Images, s.Labels} {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	return missing
}
