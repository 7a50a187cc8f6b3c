package main

import "github.com/artvista/cartsync/cmd"

func main() {
	cmd.Start()
}
