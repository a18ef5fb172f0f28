package main

import "github.com/klytics/rosterfmt/cmd"

func main() {
	cmd.Execute()
}
