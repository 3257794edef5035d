// file: main.go
// version: 2.0.0
// guid: 0990a3af-71b5-44f4-8c57-06e0c503fc4b

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/spit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
