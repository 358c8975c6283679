package main

import "neat-backup/cmd"

func main() {
	cmd.Execute()
}
