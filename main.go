package main

import "sdkdocs/cmd"

func main() {
	cmd.Execute()
}
