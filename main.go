package main

import (
	"softlink/cmd"
)

func main() {
	cmd.Execute()
}
