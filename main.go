package main

import "skillswap/cmd"

func main() {
	cmd.Execute()
}
