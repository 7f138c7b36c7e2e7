package main

import "github.com/FOUEN/questpatch/internal/cli"

func main() {
	cli.Run()
}
