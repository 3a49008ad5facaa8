package main

import "github.com/civitrack/apiserver/cmd"

func main() {
	cmd.Execute()
}
