package main

import "wordsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
