package main

import (
	"github.com/foomo/clientregistry/cmd"
)

func main() {
	cmd.Execute()
}
