package main

import "github.com/ridoystarlord/metagen/cmd"

func main() {
	cmd.Execute()
}
