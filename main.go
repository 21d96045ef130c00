package main

import "github.com/lcj0117/bsf/build-tools/cmd"

func main() {
	cmd.Execute()
}
