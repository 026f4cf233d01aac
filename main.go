package main

import "github.com/meysamhadeli/assemble/cmd"

func main() {
	cmd.Execute()
}
