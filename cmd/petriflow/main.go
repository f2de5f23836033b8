package main

import "github.com/petriflow/petriflow/cmd/petriflow/cmd"

func main() {
	cmd.Execute()
}
