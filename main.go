package main

import "github.com/luoxy/steamlark/cmd"

func main() {
	cmd.Execute()
}
