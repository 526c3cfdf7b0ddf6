package main

import "github.com/calegray/storefront/cmd"

func main() {
	cmd.Start()
}
