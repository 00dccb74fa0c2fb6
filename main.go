package main

import "github.com/KaramelBytes/groupfill-cli/cmd"

func main() {
	cmd.Execute()
}
