package main

import "github.com/alkoparse/alkoteka-crawler/cmd"

func main() {
	cmd.Execute()
}
