package main

import "go.minekube.com/serverpacks/pkg/cmd/packctl"

func main() {
	packctl.Execute()
}
