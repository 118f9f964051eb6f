// Package commands implements the idxsparse command line.
package commands

import (
	"github.com/scott-cotton/cli"
)

const usageText = `idxsparse - convert MNIST IDX archives to sparse text

Usage:
  idxsparse convert [opts]    Convert archives to MNIST-28x28-{test,train}.txt
  idxsparse inspect [files]   Show the IDX headers of archives
  idxsparse verify [opts]     Check converted output against the archives

The archives are expected under their published names:
  t10k-images-idx3-ubyte.gz  t10k-labels-idx1-ubyte.gz
  train-images-idx3-ubyte.gz train-labels-idx1-ubyte.gz

Examples:
  idxsparse convert -dir data
  idxsparse convert -dir data -all -checksum
  idxsparse convert -images a.gz -labels b.gz -o out.txt
  idxsparse convert -all -sqlite mnist.db -format msgp
  idxsparse inspect data/*.gz
  idxsparse verify -dir data -all`

// Root returns the root command of idxsparse.
func Root() *cli.Command {
	return cli.NewCommand("idxsparse").
		WithSynopsis("idxsparse command [opts]").
		WithDescription(usageText).
		WithSubs(
			ConvertCommand(),
			InspectCommand(),
			VerifyCommand(),
		)
}
