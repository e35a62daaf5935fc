package main

import "github.com/iksnae/skillswap/cmd"

func main() {
	cmd.Execute()
}
