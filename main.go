package main

import "github.com/frahmantamala/expense-client/cmd"

func main() {
	cmd.Execute()
}
