package main

import "crudbench/cmd"

func main() {
	cmd.Execute()
}
