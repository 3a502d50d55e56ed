package main

import "knowhow-editor/cmd"

func main() {
	cmd.Execute(cmd.RootCmd())
}
