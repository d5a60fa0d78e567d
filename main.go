package main

import (
	"github.com/salamyar/salamyar/cmd"
)

func main() {
	cmd.Execute()
}
