package main

import "github.com/hyperion-go/hyperion/cmd"

func main() {
	cmd.Execute()
}
