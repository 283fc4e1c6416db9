package main

import "github.com/mkleiva/sosivask/internal/cli"

func main() {
	cli.Execute()
}
