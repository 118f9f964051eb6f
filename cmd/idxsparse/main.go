package main

import (
	"context"

	"github.com/scott-cotton/cli"

	"github.com/teenjuna/idxsparse/cmd/idxsparse/commands"
)

func main() {
	cli.MainContext(context.Background(), commands.Root())
}
