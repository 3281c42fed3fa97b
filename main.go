package main

import "github.com/cnpbank/cnp/cmd"

func main() {
	cmd.Execute()
}
